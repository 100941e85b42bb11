package models

import (
	"time"
)

type User struct {
	ID           string     `gorm:"primarykey;type:varchar(36)" json:"id"`
	Username     string     `gorm:"type:varchar(20);uniqueIndex;not null" json:"username"`
	Email        string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"`
	FirstName    string     `gorm:"type:varchar(50);not null" json:"firstName"`
	LastName     string     `gorm:"type:varchar(50);not null" json:"lastName"`
	Avatar       *string    `gorm:"type:varchar(500)" json:"avatar"`
	IsActive     bool       `gorm:"not null;default:true;index" json:"isActive"`
	LastLogin    *time.Time `json:"lastLogin"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`

	// Relations
	CreatedTasks  []Task `gorm:"foreignKey:CreatedByID" json:"-"`
	AssignedTasks []Task `gorm:"foreignKey:AssignedToID" json:"-"`
}
