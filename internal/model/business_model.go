package model

import (
	"time"

	"gorm.io/gorm"
)

type Business struct {
	Id                   uint           `gorm:"primaryKey"`
	WorkspaceId          uint           `gorm:"not null;index"`
	Sequence             int            `gorm:"not null;default:0"`
	Name                 string         `gorm:"type:varchar(255);not null"`
	Email                string         `gorm:"type:varchar(255)"`
	IsDefault            bool           `gorm:"default:false"`
	DefaultTaxMode       string         `gorm:"type:varchar(20);not null;default:'NONE'"`
	DefaultTaxName       string         `gorm:"type:varchar(100)"`
	DefaultTaxPercentage float64        `gorm:"default:0"`
	DefaultNotes         string         `gorm:"type:text"`
	DefaultTerms         string         `gorm:"type:text"`
	CreatedAt            time.Time      `gorm:"autoCreateTime"`
	UpdatedAt            time.Time      `gorm:"autoUpdateTime"`
	DeletedAt            gorm.DeletedAt `gorm:"index"`
}

func (Business) TableName() string {
	return "businesses"
}
