package repositories

import (
	"context"
	"time"

	"filebox/models"

	"gorm.io/gorm"
)

type TxManager interface {
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type UserRepository interface {
	CountByUsername(ctx context.Context, username string) (int64, error)
	CountByEmail(ctx context.Context, email string) (int64, error)
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByUsername(ctx context.Context, tx *gorm.DB, username string) (models.User, error)
	GetByID(ctx context.Context, tx *gorm.DB, userID uint) (models.User, error)
	// SetRefreshTokenHash overwrites the live refresh token; nil clears it.
	SetRefreshTokenHash(ctx context.Context, tx *gorm.DB, userID uint, hash *string) error
	// SwapRefreshTokenHash replaces oldHash with newHash only if oldHash is
	// still the recorded value. It reports whether the swap happened.
	SwapRefreshTokenHash(ctx context.Context, tx *gorm.DB, userID uint, oldHash string, newHash string) (bool, error)
}

type FileRepository interface {
	Create(ctx context.Context, tx *gorm.DB, file *models.File) error
	ListByFolder(ctx context.Context, tx *gorm.DB, userID uint, folderPath string) ([]models.File, error)
	GetByIDAndUser(ctx context.Context, tx *gorm.DB, fileID uint, userID uint) (models.File, error)
	UpdateByIDAndUser(ctx context.Context, tx *gorm.DB, fileID uint, userID uint, updates map[string]interface{}) error
	DeleteByIDAndUser(ctx context.Context, tx *gorm.DB, fileID uint, userID uint) (int64, error)
}

// LoginAttemptRepository counts failed logins per key inside a rolling window.
type LoginAttemptRepository interface {
	Failures(ctx context.Context, key string) (int64, error)
	RecordFailure(ctx context.Context, key string, window time.Duration) (int64, error)
	Reset(ctx context.Context, key string) error
}

type Container struct {
	TxManager     TxManager
	Users         UserRepository
	Files         FileRepository
	LoginAttempts LoginAttemptRepository
}
