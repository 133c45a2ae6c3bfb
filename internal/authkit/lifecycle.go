package authkit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// TokenPair is a freshly minted access/refresh pair.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// LoginResult carries the identity and tokens returned by login and refresh.
type LoginResult struct {
	UserID    string
	UserEmail string
	Tokens    TokenPair
}

// Lifecycle orchestrates the session and credential state machine: a user is
// Anonymous (no session record), becomes Active on login, and returns to
// Anonymous on logout or passive TTL expiry. All session state lives in the
// session store; the service itself holds no cross-request mutable state.
type Lifecycle struct {
	credentials CredentialStore
	sessions    SessionStore
	codec       *TokenCodec
	logger      *zap.Logger
	metrics     MetricsRecorder
}

// NewLifecycle wires the orchestrator with its injected collaborators.
func NewLifecycle(credentials CredentialStore, sessions SessionStore, codec *TokenCodec, logger *zap.Logger, metrics MetricsRecorder) *Lifecycle {
	if credentials == nil || sessions == nil || codec == nil {
		panic("lifecycle: credential store, session store, and codec are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewCounterMetrics()
	}
	return &Lifecycle{
		credentials: credentials,
		sessions:    sessions,
		codec:       codec,
		logger:      logger,
		metrics:     metrics,
	}
}

// Join registers a new user with a bcrypt-hashed password.
func (lifecycle *Lifecycle) Join(ctx context.Context, email string, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") || password == "" {
		lifecycle.metrics.Increment(MetricJoinRejected)
		return fmt.Errorf("lifecycle.join.input: %w", ErrValidation)
	}
	passwordHash, hashErr := HashPassword(password)
	if hashErr != nil {
		lifecycle.metrics.Increment(MetricJoinRejected)
		return fmt.Errorf("lifecycle.join: %w", hashErr)
	}
	user, registerErr := lifecycle.credentials.Register(ctx, email, passwordHash)
	if registerErr != nil {
		lifecycle.metrics.Increment(MetricJoinRejected)
		return fmt.Errorf("lifecycle.join: %w", registerErr)
	}
	lifecycle.metrics.Increment(MetricJoinOK)
	lifecycle.logger.Info("user registered",
		zap.String("code", "lifecycle.join.ok"),
		zap.String("user_id", user.UserID))
	return nil
}

// Login verifies credentials and replaces the user's session record with a
// fresh token pair. Any prior session for the same user is overwritten, which
// silently logs out other active sessions (single-session-per-user policy).
func (lifecycle *Lifecycle) Login(ctx context.Context, email string, password string) (LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return LoginResult{}, fmt.Errorf("lifecycle.login.input: %w", ErrValidation)
	}
	user, found, findErr := lifecycle.credentials.FindByEmail(ctx, email)
	if findErr != nil {
		lifecycle.metrics.Increment(MetricDependencyFailure)
		return LoginResult{}, fmt.Errorf("lifecycle.login: %w", findErr)
	}
	if !found {
		lifecycle.metrics.Increment(MetricLoginRejected)
		return LoginResult{}, fmt.Errorf("lifecycle.login.unknown_email: %w", ErrAuthenticationFailed)
	}
	if compareErr := ComparePassword(password, user.PasswordHash); compareErr != nil {
		lifecycle.metrics.Increment(MetricLoginRejected)
		return LoginResult{}, fmt.Errorf("lifecycle.login: %w", compareErr)
	}
	tokens, issueErr := lifecycle.issueSession(ctx, user.UserID, user.Email)
	if issueErr != nil {
		lifecycle.metrics.Increment(MetricDependencyFailure)
		return LoginResult{}, fmt.Errorf("lifecycle.login: %w", issueErr)
	}
	lifecycle.metrics.Increment(MetricLoginOK)
	lifecycle.logger.Info("login",
		zap.String("code", "lifecycle.login.ok"),
		zap.String("user_id", user.UserID))
	return LoginResult{UserID: user.UserID, UserEmail: user.Email, Tokens: tokens}, nil
}

// Refresh rotates the session for an already-resolved identity: a new pair is
// minted and the stored record overwritten, so the prior refresh token stops
// matching the store the instant the new one is issued.
func (lifecycle *Lifecycle) Refresh(ctx context.Context, identity Identity) (LoginResult, error) {
	tokens, issueErr := lifecycle.issueSession(ctx, identity.UserID, identity.Email)
	if issueErr != nil {
		lifecycle.metrics.Increment(MetricDependencyFailure)
		return LoginResult{}, fmt.Errorf("lifecycle.refresh: %w", issueErr)
	}
	lifecycle.metrics.Increment(MetricRefreshRotated)
	lifecycle.logger.Info("session rotated",
		zap.String("code", "lifecycle.refresh.ok"),
		zap.String("user_id", identity.UserID))
	return LoginResult{UserID: identity.UserID, UserEmail: identity.Email, Tokens: tokens}, nil
}

// Logout deletes both session entries for the identity. Idempotent.
func (lifecycle *Lifecycle) Logout(ctx context.Context, identity Identity) error {
	if err := lifecycle.sessions.Delete(ctx, identity.UserID, KindAccess); err != nil {
		lifecycle.metrics.Increment(MetricDependencyFailure)
		return fmt.Errorf("lifecycle.logout: %w", err)
	}
	if err := lifecycle.sessions.Delete(ctx, identity.UserID, KindRefresh); err != nil {
		lifecycle.metrics.Increment(MetricDependencyFailure)
		return fmt.Errorf("lifecycle.logout: %w", err)
	}
	lifecycle.metrics.Increment(MetricLogoutOK)
	lifecycle.logger.Info("logout",
		zap.String("code", "lifecycle.logout.ok"),
		zap.String("user_id", identity.UserID))
	return nil
}

// Withdraw deletes the caller's own account. A caller may only delete itself.
func (lifecycle *Lifecycle) Withdraw(ctx context.Context, identity Identity, targetUserID string) error {
	targetUserID = strings.TrimSpace(targetUserID)
	if targetUserID == "" {
		return fmt.Errorf("lifecycle.withdraw.input: %w", ErrValidation)
	}
	if targetUserID != identity.UserID {
		lifecycle.metrics.Increment(MetricWithdrawalDenied)
		lifecycle.logger.Warn("withdrawal denied",
			zap.String("code", "lifecycle.withdraw.forbidden"),
			zap.String("user_id", identity.UserID),
			zap.String("target_user_id", targetUserID))
		return fmt.Errorf("lifecycle.withdraw: %w", ErrForbidden)
	}
	// Drop the session first so a deleted account cannot keep refreshing
	// until the cache TTL runs out.
	if err := lifecycle.Logout(ctx, identity); err != nil {
		return fmt.Errorf("lifecycle.withdraw: %w", err)
	}
	if err := lifecycle.credentials.Delete(ctx, targetUserID); err != nil {
		return fmt.Errorf("lifecycle.withdraw: %w", err)
	}
	lifecycle.metrics.Increment(MetricWithdrawalOK)
	lifecycle.logger.Info("account withdrawn",
		zap.String("code", "lifecycle.withdraw.ok"),
		zap.String("user_id", targetUserID))
	return nil
}

func (lifecycle *Lifecycle) issueSession(ctx context.Context, userID string, email string) (TokenPair, error) {
	accessToken, accessExpiresAt, accessErr := lifecycle.codec.CreateAccessToken(userID, email)
	if accessErr != nil {
		return TokenPair{}, accessErr
	}
	refreshToken, refreshExpiresAt, refreshErr := lifecycle.codec.CreateRefreshToken(userID, email)
	if refreshErr != nil {
		return TokenPair{}, refreshErr
	}
	if err := lifecycle.sessions.Put(ctx, userID, KindAccess, accessToken, lifecycle.codec.AccessTTL()); err != nil {
		return TokenPair{}, err
	}
	if err := lifecycle.sessions.Put(ctx, userID, KindRefresh, refreshToken, lifecycle.codec.RefreshTTL()); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessExpiresAt,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}
