package models

import (
	"time"

	"github.com/google/uuid"
)

// Investment is one investor's allocation amount to one startup.
// At most one row exists per (investor, startup) pair; re-allocating
// updates the row and allocating zero deletes it.
type Investment struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	InvestorID        uint      `gorm:"not null;index;uniqueIndex:idx_investor_startup" json:"investor_id"`
	StartupID         uint      `gorm:"not null;index;uniqueIndex:idx_investor_startup" json:"startup_id"`
	Amount            int64     `gorm:"not null" json:"amount"`
	DeviceFingerprint *string   `gorm:"size:128" json:"device_fingerprint,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName specifies the table name for Investment model
func (Investment) TableName() string {
	return "investments"
}
