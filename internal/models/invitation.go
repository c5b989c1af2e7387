package models

import "gorm.io/gorm"

// Invitation is a pending invite for a user to join a project. ProjectName
// and InviterName are display snapshots taken at invite time; they are not
// refreshed if the project is later renamed.
type Invitation struct {
	gorm.Model

	UserID      uint `gorm:"not null;index"`
	ProjectID   uint `gorm:"not null;index"`
	ProjectName string
	InviterName string

	// Relationships
	User    User    `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Project Project `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
