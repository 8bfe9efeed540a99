package model

import (
	"time"
)

type UserRole string

const (
	Student UserRole = "student"
	Teacher UserRole = "teacher"
	Admin   UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Name     string    `gorm:"size:100;not null" json:"Name"`
	Email    string    `gorm:"size:100;unique;not null" json:"Email"`
	Role     UserRole  `gorm:"type:enum('student','teacher','admin');default:'student'" json:"Role"`
	Language string    `gorm:"size:10;default:'he'" json:"Language"`
	Avatar   string    `gorm:"size:255" json:"avatar"`
	Disabled bool      `gorm:"default:false" json:"Disabled"`
	LastSeen time.Time `gorm:"default:CURRENT_TIMESTAMP(3)" json:"LastSeen"`
}

func (User) TableName() string {
	return "users"
}
