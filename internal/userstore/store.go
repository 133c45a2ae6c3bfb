// Package userstore persists durable user records for the auth service.
package userstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	sqliteDialector "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mkweon/authd/internal/authkit"
)

var (
	// ErrUnsupportedDialect indicates that no GORM dialector is available for the scheme.
	ErrUnsupportedDialect = errors.New("user_store.unsupported_dialect")

	errEmptyDatabaseURL    = errors.New("user_store.empty_database_url")
	errSQLiteEmptyPath     = errors.New("user_store.sqlite.empty_path")
	errSQLiteInvalidURL    = errors.New("user_store.sqlite.invalid_url")
	errUnsupportedNoScheme = errors.New("user_store.unsupported_no_scheme")
)

// DatabaseUserStore persists users using GORM.
type DatabaseUserStore struct {
	db          *gorm.DB
	driverLabel string
}

// Driver exposes the selected database driver label.
func (store *DatabaseUserStore) Driver() string {
	return store.driverLabel
}

type userRecord struct {
	UserID        string `gorm:"column:user_id;primaryKey"`
	Email         string `gorm:"column:email;uniqueIndex;not null"`
	PasswordHash  string `gorm:"column:password_hash;not null"`
	CreatedAtUnix int64  `gorm:"column:created_at_unix;not null"`
}

func (userRecord) TableName() string {
	return "users"
}

// NewDatabaseUserStore constructs a GORM-backed store. The URL scheme picks
// the driver: postgres:// or sqlite://.
func NewDatabaseUserStore(ctx context.Context, databaseURL string) (*DatabaseUserStore, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("user_store.open: %w", errEmptyDatabaseURL)
	}
	dialector, driverLabel, err := resolveDialector(databaseURL)
	if err != nil {
		return nil, err
	}
	gormDB, openErr := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if openErr != nil {
		return nil, fmt.Errorf("user_store.open.%s: %w", driverLabel, openErr)
	}
	if migrateErr := gormDB.WithContext(ctx).AutoMigrate(&userRecord{}); migrateErr != nil {
		return nil, fmt.Errorf("user_store.migrate.%s: %w", driverLabel, migrateErr)
	}
	return &DatabaseUserStore{
		db:          gormDB,
		driverLabel: driverLabel,
	}, nil
}

// Register inserts a new user record. The unique index on email enforces the
// duplicate-registration constraint at the storage layer.
func (store *DatabaseUserStore) Register(ctx context.Context, email string, passwordHash string) (authkit.User, error) {
	if _, exists, findErr := store.FindByEmail(ctx, email); findErr != nil {
		return authkit.User{}, findErr
	} else if exists {
		return authkit.User{}, fmt.Errorf("user_store.register.%s: %w", store.driverLabel, authkit.ErrDuplicateEmail)
	}
	record := userRecord{
		UserID:        uuid.NewString(),
		Email:         email,
		PasswordHash:  passwordHash,
		CreatedAtUnix: time.Now().UTC().Unix(),
	}
	if err := store.db.WithContext(ctx).Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return authkit.User{}, fmt.Errorf("user_store.register.%s: %w", store.driverLabel, authkit.ErrDuplicateEmail)
		}
		return authkit.User{}, fmt.Errorf("user_store.register.%s: %w: %s", store.driverLabel, authkit.ErrDependencyUnavailable, err)
	}
	return authkit.User{
		UserID:       record.UserID,
		Email:        record.Email,
		PasswordHash: record.PasswordHash,
	}, nil
}

// FindByEmail returns the user for an email, or absence.
func (store *DatabaseUserStore) FindByEmail(ctx context.Context, email string) (authkit.User, bool, error) {
	var record userRecord
	err := store.db.WithContext(ctx).Where("email = ?", email).Take(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return authkit.User{}, false, nil
		}
		return authkit.User{}, false, fmt.Errorf("user_store.find.%s: %w: %s", store.driverLabel, authkit.ErrDependencyUnavailable, err)
	}
	return authkit.User{
		UserID:       record.UserID,
		Email:        record.Email,
		PasswordHash: record.PasswordHash,
	}, true, nil
}

// Delete removes the durable record for a user id.
func (store *DatabaseUserStore) Delete(ctx context.Context, userID string) error {
	result := store.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&userRecord{})
	if result.Error != nil {
		return fmt.Errorf("user_store.delete.%s: %w: %s", store.driverLabel, authkit.ErrDependencyUnavailable, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("user_store.delete.%s: %w", store.driverLabel, authkit.ErrUserNotFound)
	}
	return nil
}

func resolveDialector(databaseURL string) (gorm.Dialector, string, error) {
	parsed, err := url.Parse(databaseURL)
	if err != nil {
		return nil, "", fmt.Errorf("user_store.parse_url: %w", err)
	}
	if parsed.Scheme == "" {
		return nil, "", fmt.Errorf("user_store.dialect: %w", errUnsupportedNoScheme)
	}
	switch strings.ToLower(parsed.Scheme) {
	case "postgres", "postgresql":
		return postgres.Open(databaseURL), "postgres", nil
	case "sqlite", "sqlite3":
		dsn, dsnErr := buildSQLiteDSN(parsed)
		if dsnErr != nil {
			return nil, "", fmt.Errorf("user_store.sqlite: %w", dsnErr)
		}
		return sqliteDialector.Open(dsn), "sqlite", nil
	default:
		return nil, "", fmt.Errorf("user_store.dialect.%s: %w", strings.ToLower(parsed.Scheme), ErrUnsupportedDialect)
	}
}

func buildSQLiteDSN(parsed *url.URL) (string, error) {
	if parsed == nil {
		return "", errSQLiteInvalidURL
	}
	var builder strings.Builder
	switch {
	case parsed.Opaque != "":
		builder.WriteString(parsed.Opaque)
	case parsed.Host != "":
		builder.WriteString(parsed.Host)
		if parsed.Path != "" {
			if !strings.HasPrefix(parsed.Path, "/") {
				builder.WriteString("/")
			}
			builder.WriteString(parsed.Path)
		}
	default:
		builder.WriteString(parsed.Path)
	}
	if builder.Len() == 0 {
		return "", errSQLiteEmptyPath
	}
	if parsed.RawQuery != "" {
		builder.WriteString("?")
		builder.WriteString(parsed.RawQuery)
	}
	return builder.String(), nil
}
