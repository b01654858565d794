package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"startup-fund/internal/models"

	"gorm.io/gorm"
)

// Broadcaster pushes a projected snapshot to every connected client
type Broadcaster interface {
	Publish(snapshot *models.GameStateSnapshot)
}

// GameStateService recomputes the derived game view from the ledger. It is
// the single source of truth for totals and remaining capital; nothing
// stores these derived values.
type GameStateService struct {
	db          *gorm.DB
	broadcaster Broadcaster
}

func NewGameStateService(db *gorm.DB, broadcaster Broadcaster) *GameStateService {
	return &GameStateService{db: db, broadcaster: broadcaster}
}

// Project recomputes the full snapshot inside one read transaction so the
// result is internally consistent. Cheap at this scale; correctness over
// incremental aggregation.
func (s *GameStateService) Project(ctx context.Context) (*models.GameStateSnapshot, error) {
	snapshot := &models.GameStateSnapshot{
		Startups:    []models.StartupStanding{},
		Investments: []models.InvestmentEntry{},
		Investors:   []models.InvestorStanding{},
		GeneratedAt: time.Now().UTC(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var state models.GameState
		if err := tx.First(&state, models.GameStateID).Error; err != nil {
			return fmt.Errorf("failed to read game state: %w", err)
		}
		snapshot.IsLocked = state.Locked

		err := tx.Table("startups s").
			Select("s.id, s.name, s.slug, s.industry, s.logo_url, s.funding_ask, COALESCE(SUM(i.amount), 0) AS total_raised").
			Joins("LEFT JOIN investments i ON i.startup_id = s.id").
			Where("s.is_active = ?", true).
			Group("s.id, s.name, s.slug, s.industry, s.logo_url, s.funding_ask").
			Order("total_raised DESC, s.id ASC").
			Scan(&snapshot.Startups).Error
		if err != nil {
			return fmt.Errorf("failed to project startups: %w", err)
		}

		err = tx.Table("investments i").
			Select("i.id, i.investor_id, inv.name AS investor_name, i.startup_id, i.amount").
			Joins("JOIN investors inv ON inv.id = i.investor_id").
			Order("i.amount DESC, i.created_at ASC").
			Scan(&snapshot.Investments).Error
		if err != nil {
			return fmt.Errorf("failed to project investments: %w", err)
		}

		err = tx.Table("investors inv").
			Select("inv.id, inv.name, inv.starting_credit, inv.submitted, " +
				"COALESCE(SUM(i.amount), 0) AS invested, " +
				"inv.starting_credit - COALESCE(SUM(i.amount), 0) AS remaining").
			Joins("LEFT JOIN investments i ON i.investor_id = inv.id").
			Group("inv.id, inv.name, inv.starting_credit, inv.submitted").
			Order("inv.name ASC").
			Scan(&snapshot.Investors).Error
		if err != nil {
			return fmt.Errorf("failed to project investors: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return snapshot, nil
}

// ProjectInvestor returns one investor's standing with derived totals
func (s *GameStateService) ProjectInvestor(ctx context.Context, investorID uint) (*models.InvestorStanding, error) {
	var standing models.InvestorStanding
	err := s.db.WithContext(ctx).Table("investors inv").
		Select("inv.id, inv.name, inv.starting_credit, inv.submitted, "+
			"COALESCE(SUM(i.amount), 0) AS invested, "+
			"inv.starting_credit - COALESCE(SUM(i.amount), 0) AS remaining").
		Joins("LEFT JOIN investments i ON i.investor_id = inv.id").
		Where("inv.id = ?", investorID).
		Group("inv.id, inv.name, inv.starting_credit, inv.submitted").
		Scan(&standing).Error
	if err != nil {
		return nil, err
	}
	if standing.ID == 0 {
		return nil, fmt.Errorf("investor %d: %w", investorID, ErrNotFound)
	}
	return &standing, nil
}

// PublishState projects the current snapshot and pushes it to all connected
// clients. Called after every committed ledger mutation; a projection
// failure is logged, never propagated back to the mutating request.
// The projection detaches from the request's cancellation: the mutation has
// already committed, so a client disconnecting mid-response must not
// suppress the fan-out to everyone else.
func (s *GameStateService) PublishState(ctx context.Context) {
	if s.broadcaster == nil {
		return
	}
	snapshot, err := s.Project(context.WithoutCancel(ctx))
	if err != nil {
		log.Printf("Error projecting state for broadcast: %v", err)
		return
	}
	s.broadcaster.Publish(snapshot)
}
