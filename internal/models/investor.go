package models

import (
	"time"
)

// Investor represents a participant with allocatable virtual capital
type Investor struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"size:255;not null" json:"name"`
	Email          string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	JoinCode       string    `gorm:"size:32;uniqueIndex;not null" json:"join_code"`
	StartingCredit int64     `gorm:"not null;default:0" json:"starting_credit"`
	Submitted      bool      `gorm:"default:false" json:"submitted"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName specifies the table name for Investor model
func (Investor) TableName() string {
	return "investors"
}
