package models

import "time"

type User struct {
	ID               uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username         string    `gorm:"type:varchar(80);uniqueIndex;not null" json:"username"`
	Email            string    `gorm:"type:varchar(120);uniqueIndex;not null" json:"email"`
	Password         string    `gorm:"type:varchar(255);not null" json:"-"`
	RefreshTokenHash *string   `gorm:"type:varchar(64)" json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"-"`
}
