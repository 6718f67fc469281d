package model

import (
	"time"

	"gorm.io/gorm"
)

type Client struct {
	Id          uint           `gorm:"primaryKey"`
	WorkspaceId uint           `gorm:"not null;index"`
	Sequence    int            `gorm:"not null;default:0"`
	Name        string         `gorm:"type:varchar(255);not null"`
	Email       string         `gorm:"type:varchar(255);not null"`
	Phone       string         `gorm:"type:varchar(50)"`
	Address     string         `gorm:"type:varchar(500)"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (Client) TableName() string {
	return "clients"
}
