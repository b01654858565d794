package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"startup-fund/internal/models"
	"startup-fund/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AdminService implements the admin mutation surface: startup CRUD, investor
// credit management, the global lock toggle, and funds-request resolution.
// Every successful mutation projects and broadcasts the new snapshot before
// the HTTP response completes.
type AdminService struct {
	db     *gorm.DB
	ledger *repository.Ledger
	states *GameStateService
}

func NewAdminService(db *gorm.DB, ledger *repository.Ledger, states *GameStateService) *AdminService {
	return &AdminService{db: db, ledger: ledger, states: states}
}

// StartupInput carries the admin-editable startup fields
type StartupInput struct {
	Name         string   `json:"name" binding:"required"`
	Slug         string   `json:"slug"`
	Description  string   `json:"description"`
	LogoURL      string   `json:"logo_url"`
	PitchDeckURL string   `json:"pitch_deck_url"`
	Industry     string   `json:"industry"`
	Team         []string `json:"team"`
	FundingAsk   int64    `json:"funding_ask"`
	HasRevenue   bool     `json:"has_revenue"`
	LegalEntity  string   `json:"legal_entity"`
	CohortTags   []string `json:"cohort_tags"`
	IsActive     *bool    `json:"is_active"`
}

// CreateStartup creates a startup; the slug defaults to a slugified name
func (s *AdminService) CreateStartup(ctx context.Context, adminName string, input *StartupInput) (*models.Startup, error) {
	slug := input.Slug
	if slug == "" {
		slug = Slugify(input.Name)
	}
	if slug == "" {
		return nil, &ValidationError{Message: "startup name must contain at least one alphanumeric character"}
	}

	var startup *models.Startup
	err := s.db.Transaction(func(tx *gorm.DB) error {
		led := s.ledger.WithTx(tx)

		if _, err := led.GetStartupBySlug(ctx, slug); err == nil {
			return &ValidationError{Message: fmt.Sprintf("slug %q is already in use", slug)}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		startup = &models.Startup{
			Name:         input.Name,
			Slug:         slug,
			Description:  input.Description,
			LogoURL:      input.LogoURL,
			PitchDeckURL: input.PitchDeckURL,
			Industry:     input.Industry,
			Team:         input.Team,
			FundingAsk:   input.FundingAsk,
			HasRevenue:   input.HasRevenue,
			LegalEntity:  input.LegalEntity,
			CohortTags:   input.CohortTags,
			IsActive:     true,
		}
		if input.IsActive != nil {
			startup.IsActive = *input.IsActive
		}
		return led.CreateStartup(ctx, startup)
	})
	if err != nil {
		return nil, err
	}

	s.logAction(ctx, adminName, "CREATE_STARTUP", "STARTUP", fmt.Sprint(startup.ID), models.JSONB{"slug": startup.Slug})
	s.states.PublishState(ctx)
	return startup, nil
}

// UpdateStartup applies admin edits to a startup
func (s *AdminService) UpdateStartup(ctx context.Context, adminName string, startupID uint, input *StartupInput) (*models.Startup, error) {
	var startup *models.Startup
	err := s.db.Transaction(func(tx *gorm.DB) error {
		led := s.ledger.WithTx(tx)

		existing, err := led.GetStartupByID(ctx, startupID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("startup %d: %w", startupID, ErrNotFound)
			}
			return err
		}

		slug := input.Slug
		if slug == "" {
			slug = existing.Slug
		}
		if slug != existing.Slug {
			if _, err := led.GetStartupBySlug(ctx, slug); err == nil {
				return &ValidationError{Message: fmt.Sprintf("slug %q is already in use", slug)}
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		existing.Name = input.Name
		existing.Slug = slug
		existing.Description = input.Description
		existing.LogoURL = input.LogoURL
		existing.PitchDeckURL = input.PitchDeckURL
		existing.Industry = input.Industry
		existing.Team = input.Team
		existing.FundingAsk = input.FundingAsk
		existing.HasRevenue = input.HasRevenue
		existing.LegalEntity = input.LegalEntity
		existing.CohortTags = input.CohortTags
		if input.IsActive != nil {
			existing.IsActive = *input.IsActive
		}

		if err := led.SaveStartup(ctx, existing); err != nil {
			return err
		}
		startup = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logAction(ctx, adminName, "UPDATE_STARTUP", "STARTUP", fmt.Sprint(startupID), nil)
	s.states.PublishState(ctx)
	return startup, nil
}

// DeleteStartup removes a startup and all investments referencing it
func (s *AdminService) DeleteStartup(ctx context.Context, adminName string, startupID uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		led := s.ledger.WithTx(tx)

		if _, err := led.GetStartupByID(ctx, startupID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("startup %d: %w", startupID, ErrNotFound)
			}
			return err
		}
		if err := led.DeleteInvestmentsByStartup(ctx, startupID); err != nil {
			return err
		}
		return led.DeleteStartup(ctx, startupID)
	})
	if err != nil {
		return err
	}

	s.logAction(ctx, adminName, "DELETE_STARTUP", "STARTUP", fmt.Sprint(startupID), nil)
	s.states.PublishState(ctx)
	return nil
}

// UpdateInvestorCredit sets an investor's starting credit. The new value must
// not be negative or below what the investor has already allocated.
func (s *AdminService) UpdateInvestorCredit(ctx context.Context, adminName string, investorID uint, newCredit int64) (*models.Investor, error) {
	var investor *models.Investor
	err := s.db.Transaction(func(tx *gorm.DB) error {
		led := s.ledger.WithTx(tx)

		existing, err := led.GetInvestorForUpdate(ctx, investorID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("investor %d: %w", investorID, ErrNotFound)
			}
			return err
		}

		if newCredit < 0 {
			return &ValidationError{Message: "starting credit must not be negative"}
		}
		invested, err := led.SumInvested(ctx, investorID)
		if err != nil {
			return err
		}
		if newCredit < invested {
			return &ValidationError{
				Message: fmt.Sprintf("starting credit %d is below the %d already invested", newCredit, invested),
			}
		}

		existing.StartingCredit = newCredit
		if err := led.SaveInvestor(ctx, existing); err != nil {
			return err
		}
		investor = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logAction(ctx, adminName, "UPDATE_INVESTOR_CREDIT", "INVESTOR", fmt.Sprint(investorID), models.JSONB{"starting_credit": newCredit})
	s.states.PublishState(ctx)
	return investor, nil
}

// DeleteInvestor removes an investor, cascading their investments and
// funds requests.
func (s *AdminService) DeleteInvestor(ctx context.Context, adminName string, investorID uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		led := s.ledger.WithTx(tx)

		if _, err := led.GetInvestorByID(ctx, investorID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("investor %d: %w", investorID, ErrNotFound)
			}
			return err
		}
		if err := led.DeleteInvestmentsByInvestor(ctx, investorID); err != nil {
			return err
		}
		if err := led.DeleteFundsRequestsByInvestor(ctx, investorID); err != nil {
			return err
		}
		return led.DeleteInvestor(ctx, investorID)
	})
	if err != nil {
		return err
	}

	s.logAction(ctx, adminName, "DELETE_INVESTOR", "INVESTOR", fmt.Sprint(investorID), nil)
	s.states.PublishState(ctx)
	return nil
}

// ToggleLock flips the global lock and returns the new state
func (s *AdminService) ToggleLock(ctx context.Context, adminName string) (bool, error) {
	var locked bool
	err := s.db.Transaction(func(tx *gorm.DB) error {
		led := s.ledger.WithTx(tx)

		state, err := led.GetGameStateForUpdate(ctx)
		if err != nil {
			return fmt.Errorf("failed to read game state: %w", err)
		}
		state.Locked = !state.Locked
		locked = state.Locked
		return led.SaveGameState(ctx, state)
	})
	if err != nil {
		return false, err
	}

	s.logAction(ctx, adminName, "TOGGLE_LOCK", "GAME_STATE", "", models.JSONB{"locked": locked})
	log.Printf("Game lock toggled by %s: locked=%v", adminName, locked)
	s.states.PublishState(ctx)
	return locked, nil
}

// ApproveFundsRequest grants a pending request, bumping the investor's
// starting credit by the requested amount in the same transaction.
func (s *AdminService) ApproveFundsRequest(ctx context.Context, adminName string, requestID uuid.UUID, response string) (*models.FundsRequest, error) {
	request, err := s.reviewFundsRequest(ctx, adminName, requestID, response, true)
	if err != nil {
		return nil, err
	}
	s.states.PublishState(ctx)
	return request, nil
}

// RejectFundsRequest declines a pending request without touching capital
func (s *AdminService) RejectFundsRequest(ctx context.Context, adminName string, requestID uuid.UUID, response string) (*models.FundsRequest, error) {
	request, err := s.reviewFundsRequest(ctx, adminName, requestID, response, false)
	if err != nil {
		return nil, err
	}
	s.states.PublishState(ctx)
	return request, nil
}

func (s *AdminService) reviewFundsRequest(
	ctx context.Context,
	adminName string,
	requestID uuid.UUID,
	response string,
	approve bool,
) (*models.FundsRequest, error) {
	var reviewed *models.FundsRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		led := s.ledger.WithTx(tx)

		request, err := led.GetFundsRequestForUpdate(ctx, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("funds request %s: %w", requestID, ErrNotFound)
			}
			return err
		}
		if request.Status != models.FundsRequestStatusPending {
			return &ValidationError{Message: fmt.Sprintf("funds request already %s", strings.ToLower(string(request.Status)))}
		}

		if approve {
			investor, err := led.GetInvestorForUpdate(ctx, request.InvestorID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("investor %d: %w", request.InvestorID, ErrNotFound)
				}
				return err
			}
			investor.StartingCredit += request.Amount
			if err := led.SaveInvestor(ctx, investor); err != nil {
				return err
			}
			request.Status = models.FundsRequestStatusApproved
		} else {
			request.Status = models.FundsRequestStatusRejected
		}

		now := time.Now()
		request.AdminResponse = &response
		request.ReviewedBy = &adminName
		request.ReviewedAt = &now

		if err := led.SaveFundsRequest(ctx, request); err != nil {
			return err
		}
		reviewed = request
		return nil
	})
	if err != nil {
		return nil, err
	}

	action := "REJECT_FUNDS_REQUEST"
	if approve {
		action = "APPROVE_FUNDS_REQUEST"
	}
	s.logAction(ctx, adminName, action, "FUNDS_REQUEST", requestID.String(), models.JSONB{"amount": reviewed.Amount})
	return reviewed, nil
}

// ListFundsRequests returns requests, optionally filtered by status
func (s *AdminService) ListFundsRequests(ctx context.Context, status models.FundsRequestStatus) ([]models.FundsRequest, error) {
	return s.ledger.ListFundsRequests(ctx, status)
}

// GetAdminLogs returns the admin audit trail
func (s *AdminService) GetAdminLogs(ctx context.Context, limit, offset int) ([]models.AdminLog, error) {
	return s.ledger.ListAdminLogs(ctx, limit, offset)
}

// DashboardStats summarizes the game for the admin dashboard
type DashboardStats struct {
	TotalInvestors    int64           `json:"total_investors"`
	SubmittedCount    int64           `json:"submitted_count"`
	ActiveStartups    int64           `json:"active_startups"`
	TotalStartups     int64           `json:"total_startups"`
	TotalInvested     int64           `json:"total_invested"`
	TotalCredit       int64           `json:"total_credit"`
	PendingRequests   int64           `json:"pending_requests"`
	AverageAllocation decimal.Decimal `json:"average_allocation"`
	DeployedFraction  decimal.Decimal `json:"deployed_fraction"`
}

// GetDashboard computes aggregate platform statistics
func (s *AdminService) GetDashboard(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{
		AverageAllocation: decimal.Zero,
		DeployedFraction:  decimal.Zero,
	}
	db := s.db.WithContext(ctx)

	if err := db.Model(&models.Investor{}).Count(&stats.TotalInvestors).Error; err != nil {
		return nil, err
	}
	db.Model(&models.Investor{}).Where("submitted = ?", true).Count(&stats.SubmittedCount)
	db.Model(&models.Startup{}).Count(&stats.TotalStartups)
	db.Model(&models.Startup{}).Where("is_active = ?", true).Count(&stats.ActiveStartups)
	db.Model(&models.FundsRequest{}).Where("status = ?", models.FundsRequestStatusPending).Count(&stats.PendingRequests)

	var investmentCount int64
	db.Model(&models.Investment{}).Count(&investmentCount)
	db.Model(&models.Investment{}).Select("COALESCE(SUM(amount), 0)").Scan(&stats.TotalInvested)
	db.Model(&models.Investor{}).Select("COALESCE(SUM(starting_credit), 0)").Scan(&stats.TotalCredit)

	if investmentCount > 0 {
		stats.AverageAllocation = decimal.NewFromInt(stats.TotalInvested).
			Div(decimal.NewFromInt(investmentCount)).Round(2)
	}
	if stats.TotalCredit > 0 {
		stats.DeployedFraction = decimal.NewFromInt(stats.TotalInvested).
			Div(decimal.NewFromInt(stats.TotalCredit)).Round(4)
	}

	return stats, nil
}

// logAction records an admin action for the audit trail
func (s *AdminService) logAction(ctx context.Context, adminName, action, resourceType, resourceID string, details models.JSONB) {
	entry := &models.AdminLog{
		AdminName:    adminName,
		Action:       action,
		ResourceType: resourceType,
		Details:      details,
	}
	if resourceID != "" {
		entry.ResourceID = &resourceID
	}
	if err := s.ledger.CreateAdminLog(ctx, entry); err != nil {
		log.Printf("Warning: failed to record admin action %s: %v", action, err)
	}
}

var slugStripper = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases a name and collapses non-alphanumerics into hyphens
func Slugify(name string) string {
	slug := slugStripper.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}
