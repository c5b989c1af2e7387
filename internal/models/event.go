package models

import (
	"time"

	"gorm.io/gorm"
)

// Event is a personal calendar item. It belongs to exactly one user and has
// no sharing or role model.
type Event struct {
	gorm.Model

	Title  string    `gorm:"not null"`
	Start  time.Time `gorm:"not null"`
	End    time.Time `gorm:"not null"`
	AllDay bool      `gorm:"not null;default:false"`
	Status string    `gorm:"not null"`
	UserID uint      `gorm:"not null;index"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
