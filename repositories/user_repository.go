package repositories

import (
	"context"

	"filebox/models"

	"gorm.io/gorm"
)

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) CountByUsername(ctx context.Context, username string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error
	return count, err
}

func (r *GormUserRepository) CountByEmail(ctx context.Context, email string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	return count, err
}

func (r *GormUserRepository) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	return useTx(ctx, r.db, tx).Create(user).Error
}

func (r *GormUserRepository) GetByUsername(ctx context.Context, tx *gorm.DB, username string) (models.User, error) {
	var user models.User
	err := useTx(ctx, r.db, tx).Where("username = ?", username).First(&user).Error
	return user, err
}

func (r *GormUserRepository) GetByID(ctx context.Context, tx *gorm.DB, userID uint) (models.User, error) {
	var user models.User
	err := useTx(ctx, r.db, tx).First(&user, userID).Error
	return user, err
}

func (r *GormUserRepository) SetRefreshTokenHash(ctx context.Context, tx *gorm.DB, userID uint, hash *string) error {
	var value interface{}
	if hash != nil {
		value = *hash
	}
	return useTx(ctx, r.db, tx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("refresh_token_hash", value).Error
}

func (r *GormUserRepository) SwapRefreshTokenHash(ctx context.Context, tx *gorm.DB, userID uint, oldHash string, newHash string) (bool, error) {
	res := useTx(ctx, r.db, tx).Model(&models.User{}).
		Where("id = ? AND refresh_token_hash = ?", userID, oldHash).
		Update("refresh_token_hash", newHash)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
