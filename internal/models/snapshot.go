package models

import (
	"time"

	"github.com/google/uuid"
)

// StartupStanding is a startup joined with its aggregated total,
// as it appears in the projected snapshot.
type StartupStanding struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Industry    string `json:"industry"`
	LogoURL     string `json:"logo_url"`
	FundingAsk  int64  `json:"funding_ask"`
	TotalRaised int64  `json:"total_raised"`
}

// InvestmentEntry is an investment row joined with the investor's display name
type InvestmentEntry struct {
	ID           uuid.UUID `json:"id"`
	InvestorID   uint      `json:"investor_id"`
	InvestorName string    `json:"investor_name"`
	StartupID    uint      `json:"startup_id"`
	Amount       int64     `json:"amount"`
}

// InvestorStanding is an investor joined with derived invested/remaining totals
type InvestorStanding struct {
	ID             uint   `json:"id"`
	Name           string `json:"name"`
	StartingCredit int64  `json:"starting_credit"`
	Invested       int64  `json:"invested"`
	Remaining      int64  `json:"remaining"`
	Submitted      bool   `json:"submitted"`
}

// GameStateSnapshot is the full projected view of the game, recomputed from
// the ledger on every mutation and pushed to all connected clients.
type GameStateSnapshot struct {
	Startups    []StartupStanding  `json:"startups"`
	Investments []InvestmentEntry  `json:"investments"`
	Investors   []InvestorStanding `json:"investors"`
	IsLocked    bool               `json:"is_locked"`
	GeneratedAt time.Time          `json:"generated_at"`
}
