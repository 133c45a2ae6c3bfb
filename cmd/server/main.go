package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mkweon/authd/internal/authkit"
	"github.com/mkweon/authd/internal/userstore"
	"github.com/mkweon/authd/internal/web"
)

var serveHTTP = func(server *http.Server) error {
	return server.ListenAndServe()
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "authd",
		Short:   "Auth service with JWT sessions, a cached session record per user, and rotating refresh tokens",
		PreRunE: prepareServerConfig,
		RunE:    runServer,
	}

	rootCmd.Flags().String("listen_addr", ":8001", "HTTP listen address")
	rootCmd.Flags().String("route_prefix", "/api/v1/auth", "Path prefix for auth routes")
	rootCmd.Flags().String("cookie_domain", "", "Cookie domain; empty for host-only")
	rootCmd.Flags().String("refresh_cookie_name", "refresh_token", "Name of the refresh token cookie")
	rootCmd.Flags().String("jwt_signing_key", "", "HS256 signing secret for issued tokens")
	rootCmd.Flags().String("jwt_issuer", "authd", "Issuer claim for issued tokens")
	rootCmd.Flags().Duration("access_ttl", 30*time.Minute, "Access token TTL")
	rootCmd.Flags().Duration("refresh_ttl", 0, "Refresh token TTL; zero derives 7x24 times the access TTL")
	rootCmd.Flags().String("identity_mode", "bearer", "Identity resolution mode: bearer (self-contained refresh tokens) or header (trusted gateway assertion)")
	rootCmd.Flags().String("assertion_header", "X-Identity-Assertion", "Header carrying the upstream identity assertion")
	rootCmd.Flags().String("database_url", "", "Database URL for users (postgres:// or sqlite://; leave empty for in-memory store)")
	rootCmd.Flags().String("redis_addr", "", "Redis address for session records; leave empty for in-memory store")
	rootCmd.Flags().String("redis_password", "", "Redis password")
	rootCmd.Flags().Int("redis_db", 0, "Redis database index")
	rootCmd.Flags().Bool("dev_insecure_http", false, "Allow insecure HTTP for local dev")
	rootCmd.Flags().Bool("enable_cors", false, "Enable CORS for cross-origin clients (required to set SameSite=None cookies)")
	rootCmd.Flags().StringSlice("cors_allowed_origins", []string{}, "Allowed origins when CORS is enabled (required if enable_cors is true)")

	for _, name := range []string{
		"listen_addr", "route_prefix", "cookie_domain", "refresh_cookie_name",
		"jwt_signing_key", "jwt_issuer", "access_ttl", "refresh_ttl",
		"identity_mode", "assertion_header", "database_url",
		"redis_addr", "redis_password", "redis_db",
		"dev_insecure_http", "enable_cors", "cors_allowed_origins",
	} {
		_ = viper.BindPFlag(name, rootCmd.Flags().Lookup(name))
	}

	viper.SetEnvPrefix("APP")
	viper.AutomaticEnv()

	return rootCmd
}

const (
	configCodeMissingJWTSigningKey    = "config.missing_jwt_signing_key"
	configCodeInvalidAccessTTL        = "config.invalid_access_ttl"
	configCodeInvalidRefreshTTL       = "config.invalid_refresh_ttl"
	configCodeInvalidIdentityMode     = "config.invalid_identity_mode"
	configCodeUninitializedServerConf = "config.uninitialized_server_config"
)

type contextKey string

const serverConfigContextKey contextKey = "serverConfig"

func prepareServerConfig(command *cobra.Command, arguments []string) error {
	serverConfig, loadErr := LoadServerConfig()
	if loadErr != nil {
		return loadErr
	}
	existingContext := command.Context()
	if existingContext == nil {
		existingContext = context.Background()
	}
	command.SetContext(context.WithValue(existingContext, serverConfigContextKey, serverConfig))
	return nil
}

func configError(code, message string) error {
	return fmt.Errorf("%s: %s", code, message)
}

// LoadServerConfig validates viper-bound settings into a ServerConfig.
func LoadServerConfig() (authkit.ServerConfig, error) {
	jwtSigningKey := viper.GetString("jwt_signing_key")
	if jwtSigningKey == "" {
		return authkit.ServerConfig{}, configError(configCodeMissingJWTSigningKey, "jwt_signing_key must be provided")
	}

	accessTTL := viper.GetDuration("access_ttl")
	if accessTTL <= 0 {
		return authkit.ServerConfig{}, configError(configCodeInvalidAccessTTL, "access_ttl must be greater than zero")
	}

	refreshTTL := viper.GetDuration("refresh_ttl")
	if refreshTTL == 0 {
		refreshTTL = 7 * 24 * accessTTL
	}
	if refreshTTL < accessTTL {
		return authkit.ServerConfig{}, configError(configCodeInvalidRefreshTTL, "refresh_ttl must not be shorter than access_ttl")
	}

	identityMode := authkit.IdentityMode(viper.GetString("identity_mode"))
	switch identityMode {
	case authkit.IdentityModeBearer, authkit.IdentityModeHeader:
	default:
		return authkit.ServerConfig{}, configError(configCodeInvalidIdentityMode, "identity_mode must be bearer or header")
	}

	return authkit.ServerConfig{
		JWTSigningKey:     []byte(jwtSigningKey),
		JWTIssuer:         viper.GetString("jwt_issuer"),
		RoutePrefix:       viper.GetString("route_prefix"),
		CookieDomain:      viper.GetString("cookie_domain"),
		RefreshCookieName: viper.GetString("refresh_cookie_name"),
		AccessTTL:         accessTTL,
		RefreshTTL:        refreshTTL,
		IdentityMode:      identityMode,
		AssertionHeader:   viper.GetString("assertion_header"),
	}, nil
}

func runServer(command *cobra.Command, arguments []string) error {
	logger, loggerErr := zap.NewProduction()
	if loggerErr != nil {
		return loggerErr
	}
	defer func() { _ = logger.Sync() }()

	commandContext := command.Context()
	var contextValue any
	if commandContext != nil {
		contextValue = commandContext.Value(serverConfigContextKey)
	}
	serverConfig, ok := contextValue.(authkit.ServerConfig)
	if !ok {
		return configError(configCodeUninitializedServerConf, "server configuration not prepared; PreRunE must execute before RunE")
	}

	listenAddr := viper.GetString("listen_addr")
	databaseURL := viper.GetString("database_url")
	redisAddr := viper.GetString("redis_addr")
	enableCORS := viper.GetBool("enable_cors")
	corsAllowedOrigins := viper.GetStringSlice("cors_allowed_origins")

	serverConfig.AllowInsecureHTTP = viper.GetBool("dev_insecure_http")
	serverConfig.SameSiteMode = http.SameSiteLaxMode
	if enableCORS {
		serverConfig.SameSiteMode = http.SameSiteNoneMode
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(zapLoggerMiddleware(logger))

	if enableCORS {
		corsMiddleware, corsErr := web.ConfigureCORS(logger, corsAllowedOrigins)
		if corsErr != nil {
			return corsErr
		}
		router.Use(corsMiddleware)
	}

	var credentials authkit.CredentialStore
	if databaseURL != "" {
		databaseStore, storeErr := userstore.NewDatabaseUserStore(command.Context(), databaseURL)
		if storeErr != nil {
			return storeErr
		}
		credentials = databaseStore
		logger.Info("using persistent user store", zap.String("driver", databaseStore.Driver()))
	} else {
		credentials = userstore.NewMemoryUserStore()
		logger.Info("using in-memory user store")
	}

	clock := authkit.NewSystemClock()

	var sessions authkit.SessionStore
	if redisAddr != "" {
		redisStore, storeErr := authkit.NewRedisSessionStore(command.Context(), redisAddr, viper.GetString("redis_password"), viper.GetInt("redis_db"))
		if storeErr != nil {
			return storeErr
		}
		defer func() { _ = redisStore.Close() }()
		sessions = redisStore
		logger.Info("using redis session store", zap.String("addr", redisAddr))
	} else {
		sessions = authkit.NewMemorySessionStore(clock)
		logger.Info("using in-memory session store")
	}

	codec := authkit.NewTokenCodec(serverConfig, clock)
	resolver, resolverErr := authkit.NewIdentityResolver(serverConfig.IdentityMode, codec, sessions)
	if resolverErr != nil {
		return resolverErr
	}

	metricsRecorder := authkit.NewCounterMetrics()
	lifecycle := authkit.NewLifecycle(credentials, sessions, codec, logger, metricsRecorder)

	authkit.MountAuthRoutes(router, serverConfig, lifecycle, resolver)

	router.GET("/health", func(contextGin *gin.Context) {
		contextGin.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", func(contextGin *gin.Context) {
		contextGin.JSON(http.StatusOK, metricsRecorder.Snapshot())
	})

	server := &http.Server{
		Addr:              listenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())
	defer shutdownCancel()

	go func() {
		stopSignals := make(chan os.Signal, 1)
		signal.Notify(stopSignals, syscall.SIGINT, syscall.SIGTERM)
		<-stopSignals
		graceCtx, graceCancel := context.WithTimeout(shutdownCtx, 10*time.Second)
		defer graceCancel()
		if err := server.Shutdown(graceCtx); err != nil {
			logger.Error("server shutdown error", zap.Error(err))
		}
	}()

	logger.Info("listening",
		zap.String("addr", listenAddr),
		zap.String("identity_mode", string(serverConfig.IdentityMode)))
	if err := serveHTTP(server); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen error: %w", err)
	}
	return nil
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(contextGin *gin.Context) {
		startTime := time.Now()
		contextGin.Next()
		duration := time.Since(startTime)
		logger.Info("http",
			zap.String("method", contextGin.Request.Method),
			zap.String("path", contextGin.Request.URL.Path),
			zap.Int("status", contextGin.Writer.Status()),
			zap.String("ip", contextGin.ClientIP()),
			zap.Duration("elapsed", duration),
		)
	}
}
