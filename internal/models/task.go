package models

import "gorm.io/gorm"

type Task struct {
	gorm.Model

	Title       string `gorm:"not null"`
	Description string
	Status      string `gorm:"not null"` // "To Do", "In Progress", "Done"
	Priority    string `gorm:"not null"` // "Low", "Medium", "High"
	ProjectID   uint   `gorm:"not null;index"`
	AssigneeID  *uint

	// Relationships
	Project  Project `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Assignee *User   `gorm:"foreignKey:AssigneeID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
}
