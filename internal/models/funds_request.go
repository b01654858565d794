package models

import (
	"time"

	"github.com/google/uuid"
)

// FundsRequestStatus enumerates the lifecycle of a funds request
type FundsRequestStatus string

const (
	FundsRequestStatusPending  FundsRequestStatus = "PENDING"
	FundsRequestStatusApproved FundsRequestStatus = "APPROVED"
	FundsRequestStatusRejected FundsRequestStatus = "REJECTED"
)

// FundsRequest is an investor's petition for additional starting credit.
// Approval is the only path that increases an investor's capital.
type FundsRequest struct {
	ID            uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	InvestorID    uint               `gorm:"not null;index" json:"investor_id"`
	Amount        int64              `gorm:"not null" json:"amount"`
	Justification string             `gorm:"type:text;not null" json:"justification"`
	Status        FundsRequestStatus `gorm:"size:20;not null;default:PENDING;index" json:"status"`
	AdminResponse *string            `gorm:"type:text" json:"admin_response,omitempty"`
	ReviewedBy    *string            `gorm:"size:255" json:"reviewed_by,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	ReviewedAt    *time.Time         `json:"reviewed_at,omitempty"`
}

// TableName specifies the table name for FundsRequest model
func (FundsRequest) TableName() string {
	return "funds_requests"
}
