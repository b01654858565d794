package repository

import (
	"context"

	"startup-fund/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ledger is the storage contract for the game: investors, startups,
// investments, funds requests, and the singleton lock row. Mutations are
// expected to run inside a transaction; use WithTx to scope a Ledger to one.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// WithTx returns a Ledger bound to the given transaction handle
func (r *Ledger) WithTx(tx *gorm.DB) *Ledger {
	return &Ledger{db: tx}
}

// forUpdate adds a row lock on dialects that support it. SQLite (used in
// tests) has a single writer and rejects FOR UPDATE syntax.
func (r *Ledger) forUpdate(q *gorm.DB) *gorm.DB {
	if r.db.Dialector.Name() == "postgres" {
		return q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

// ---- game state ----

// GetGameState retrieves the singleton lock row
func (r *Ledger) GetGameState(ctx context.Context) (*models.GameState, error) {
	var state models.GameState
	err := r.db.WithContext(ctx).First(&state, models.GameStateID).Error
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// GetGameStateForUpdate retrieves the lock row with a row lock
func (r *Ledger) GetGameStateForUpdate(ctx context.Context) (*models.GameState, error) {
	var state models.GameState
	err := r.forUpdate(r.db.WithContext(ctx)).First(&state, models.GameStateID).Error
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// SaveGameState persists the lock row
func (r *Ledger) SaveGameState(ctx context.Context, state *models.GameState) error {
	return r.db.WithContext(ctx).Save(state).Error
}

// ---- investors ----

// CreateInvestor creates a new investor
func (r *Ledger) CreateInvestor(ctx context.Context, investor *models.Investor) error {
	return r.db.WithContext(ctx).Create(investor).Error
}

// GetInvestorByID retrieves an investor by ID
func (r *Ledger) GetInvestorByID(ctx context.Context, investorID uint) (*models.Investor, error) {
	var investor models.Investor
	err := r.db.WithContext(ctx).First(&investor, investorID).Error
	if err != nil {
		return nil, err
	}
	return &investor, nil
}

// GetInvestorForUpdate retrieves an investor with a row lock, serializing
// concurrent allocation changes for the same investor.
func (r *Ledger) GetInvestorForUpdate(ctx context.Context, investorID uint) (*models.Investor, error) {
	var investor models.Investor
	err := r.forUpdate(r.db.WithContext(ctx)).First(&investor, investorID).Error
	if err != nil {
		return nil, err
	}
	return &investor, nil
}

// GetInvestorByEmail retrieves an investor by email
func (r *Ledger) GetInvestorByEmail(ctx context.Context, email string) (*models.Investor, error) {
	var investor models.Investor
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&investor).Error
	if err != nil {
		return nil, err
	}
	return &investor, nil
}

// SaveInvestor persists an investor
func (r *Ledger) SaveInvestor(ctx context.Context, investor *models.Investor) error {
	return r.db.WithContext(ctx).Save(investor).Error
}

// DeleteInvestor removes an investor row
func (r *Ledger) DeleteInvestor(ctx context.Context, investorID uint) error {
	return r.db.WithContext(ctx).Delete(&models.Investor{}, investorID).Error
}

// SumInvested returns the total amount an investor has allocated
func (r *Ledger) SumInvested(ctx context.Context, investorID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Investment{}).
		Where("investor_id = ?", investorID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

// SumInvestedExcluding returns the investor's allocated total excluding one
// startup, the quantity the capital check validates against.
func (r *Ledger) SumInvestedExcluding(ctx context.Context, investorID, startupID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Investment{}).
		Where("investor_id = ? AND startup_id != ?", investorID, startupID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

// ---- startups ----

// CreateStartup creates a new startup
func (r *Ledger) CreateStartup(ctx context.Context, startup *models.Startup) error {
	return r.db.WithContext(ctx).Create(startup).Error
}

// GetStartupByID retrieves a startup by ID
func (r *Ledger) GetStartupByID(ctx context.Context, startupID uint) (*models.Startup, error) {
	var startup models.Startup
	err := r.db.WithContext(ctx).First(&startup, startupID).Error
	if err != nil {
		return nil, err
	}
	return &startup, nil
}

// GetStartupBySlug retrieves a startup by its unique slug
func (r *Ledger) GetStartupBySlug(ctx context.Context, slug string) (*models.Startup, error) {
	var startup models.Startup
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&startup).Error
	if err != nil {
		return nil, err
	}
	return &startup, nil
}

// SaveStartup persists a startup
func (r *Ledger) SaveStartup(ctx context.Context, startup *models.Startup) error {
	return r.db.WithContext(ctx).Save(startup).Error
}

// DeleteStartup removes a startup row
func (r *Ledger) DeleteStartup(ctx context.Context, startupID uint) error {
	return r.db.WithContext(ctx).Delete(&models.Startup{}, startupID).Error
}

// ---- investments ----

// GetInvestment retrieves the investment for one (investor, startup) pair
func (r *Ledger) GetInvestment(ctx context.Context, investorID, startupID uint) (*models.Investment, error) {
	var investment models.Investment
	err := r.db.WithContext(ctx).
		Where("investor_id = ? AND startup_id = ?", investorID, startupID).
		First(&investment).Error
	if err != nil {
		return nil, err
	}
	return &investment, nil
}

// UpsertInvestment inserts or updates the single row for the pair,
// refreshing amount and updated_at on conflict.
func (r *Ledger) UpsertInvestment(ctx context.Context, investment *models.Investment) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "investor_id"}, {Name: "startup_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"amount":             investment.Amount,
			"device_fingerprint": investment.DeviceFingerprint,
			"updated_at":         gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(investment).Error
}

// DeleteInvestment removes the row for the pair if present
func (r *Ledger) DeleteInvestment(ctx context.Context, investorID, startupID uint) error {
	return r.db.WithContext(ctx).
		Where("investor_id = ? AND startup_id = ?", investorID, startupID).
		Delete(&models.Investment{}).Error
}

// DeleteInvestmentsByInvestor removes all of an investor's investments
func (r *Ledger) DeleteInvestmentsByInvestor(ctx context.Context, investorID uint) error {
	return r.db.WithContext(ctx).
		Where("investor_id = ?", investorID).
		Delete(&models.Investment{}).Error
}

// DeleteInvestmentsByStartup removes all investments referencing a startup
func (r *Ledger) DeleteInvestmentsByStartup(ctx context.Context, startupID uint) error {
	return r.db.WithContext(ctx).
		Where("startup_id = ?", startupID).
		Delete(&models.Investment{}).Error
}

// ---- funds requests ----

// CreateFundsRequest creates a new funds request
func (r *Ledger) CreateFundsRequest(ctx context.Context, request *models.FundsRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

// GetFundsRequestForUpdate retrieves a funds request with a row lock
func (r *Ledger) GetFundsRequestForUpdate(ctx context.Context, requestID uuid.UUID) (*models.FundsRequest, error) {
	var request models.FundsRequest
	err := r.forUpdate(r.db.WithContext(ctx)).
		Where("id = ?", requestID).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// SaveFundsRequest persists a funds request
func (r *Ledger) SaveFundsRequest(ctx context.Context, request *models.FundsRequest) error {
	return r.db.WithContext(ctx).Save(request).Error
}

// ListFundsRequests retrieves funds requests, optionally filtered by status
func (r *Ledger) ListFundsRequests(ctx context.Context, status models.FundsRequestStatus) ([]models.FundsRequest, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var requests []models.FundsRequest
	if err := query.Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// ListFundsRequestsByInvestor retrieves an investor's own requests
func (r *Ledger) ListFundsRequestsByInvestor(ctx context.Context, investorID uint) ([]models.FundsRequest, error) {
	var requests []models.FundsRequest
	err := r.db.WithContext(ctx).
		Where("investor_id = ?", investorID).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

// DeleteFundsRequestsByInvestor removes all of an investor's funds requests
func (r *Ledger) DeleteFundsRequestsByInvestor(ctx context.Context, investorID uint) error {
	return r.db.WithContext(ctx).
		Where("investor_id = ?", investorID).
		Delete(&models.FundsRequest{}).Error
}

// ---- admin logs ----

// CreateAdminLog records an admin action
func (r *Ledger) CreateAdminLog(ctx context.Context, entry *models.AdminLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListAdminLogs returns the admin audit trail, newest first
func (r *Ledger) ListAdminLogs(ctx context.Context, limit, offset int) ([]models.AdminLog, error) {
	var logs []models.AdminLog
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
