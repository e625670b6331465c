package models

import "time"

// File is the metadata record of one stored blob. Name and FilePath are
// internal and never serialized.
type File struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"-"`
	OriginalName string    `gorm:"type:varchar(255);not null" json:"original_filename"`
	FilePath     string    `gorm:"type:varchar(500);not null" json:"-"`
	FileSize     int64     `gorm:"not null" json:"file_size"`
	MimeType     string    `gorm:"type:varchar(100);not null" json:"mime_type"`
	UserID       uint      `gorm:"not null;index:idx_files_owner_folder,priority:1" json:"user_id"`
	FolderPath   string    `gorm:"type:varchar(500);default:'/';index:idx_files_owner_folder,priority:2" json:"folder_path"`
	CreatedAt    time.Time `gorm:"index" json:"uploaded_at"`
}
