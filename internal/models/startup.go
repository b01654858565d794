package models

import (
	"time"

	"github.com/lib/pq"
)

// Startup represents an investable entity receiving aggregated allocations.
// Inactive startups are excluded from the investable set and from the
// projected snapshot, but their historical investments persist.
type Startup struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"size:255;not null" json:"name"`
	Slug         string         `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Description  string         `gorm:"type:text" json:"description"`
	LogoURL      string         `gorm:"size:500" json:"logo_url"`
	PitchDeckURL string         `gorm:"size:500" json:"pitch_deck_url"`
	Industry     string         `gorm:"size:100;index" json:"industry"`
	Team         pq.StringArray `gorm:"type:text[]" json:"team"`
	FundingAsk   int64          `gorm:"default:0" json:"funding_ask"`
	HasRevenue   bool           `gorm:"default:false" json:"has_revenue"`
	LegalEntity  string         `gorm:"size:255" json:"legal_entity"`
	CohortTags   pq.StringArray `gorm:"type:text[]" json:"cohort_tags"`
	IsActive     bool           `gorm:"default:true;index" json:"is_active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// TableName specifies the table name for Startup model
func (Startup) TableName() string {
	return "startups"
}
