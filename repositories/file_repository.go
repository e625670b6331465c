package repositories

import (
	"context"

	"filebox/models"

	"gorm.io/gorm"
)

type GormFileRepository struct {
	db *gorm.DB
}

func NewGormFileRepository(db *gorm.DB) *GormFileRepository {
	return &GormFileRepository{db: db}
}

func (r *GormFileRepository) Create(ctx context.Context, tx *gorm.DB, file *models.File) error {
	return useTx(ctx, r.db, tx).Create(file).Error
}

func (r *GormFileRepository) ListByFolder(ctx context.Context, tx *gorm.DB, userID uint, folderPath string) ([]models.File, error) {
	files := make([]models.File, 0)
	err := useTx(ctx, r.db, tx).
		Where("user_id = ? AND folder_path = ?", userID, folderPath).
		Order("created_at DESC").
		Order("id DESC").
		Find(&files).Error
	return files, err
}

func (r *GormFileRepository) GetByIDAndUser(ctx context.Context, tx *gorm.DB, fileID uint, userID uint) (models.File, error) {
	var file models.File
	err := useTx(ctx, r.db, tx).Where("id = ? AND user_id = ?", fileID, userID).First(&file).Error
	return file, err
}

func (r *GormFileRepository) UpdateByIDAndUser(ctx context.Context, tx *gorm.DB, fileID uint, userID uint, updates map[string]interface{}) error {
	res := useTx(ctx, r.db, tx).Model(&models.File{}).Where("id = ? AND user_id = ?", fileID, userID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	// Some drivers count only changed rows, so an unchanged value also reports 0.
	var count int64
	if err := useTx(ctx, r.db, tx).Model(&models.File{}).Where("id = ? AND user_id = ?", fileID, userID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormFileRepository) DeleteByIDAndUser(ctx context.Context, tx *gorm.DB, fileID uint, userID uint) (int64, error) {
	res := useTx(ctx, r.db, tx).Where("id = ? AND user_id = ?", fileID, userID).Delete(&models.File{})
	return res.RowsAffected, res.Error
}
