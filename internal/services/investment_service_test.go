package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"startup-fund/internal/models"
	"startup-fund/internal/repository"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	// A single connection serializes transactions; the shared-cache memory DB
	// reports table locks under concurrent writers otherwise.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.Investor{},
		&models.Investment{},
		&models.FundsRequest{},
		&models.GameState{},
		&models.AdminLog{},
	)
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	// The startups table carries text[] columns that SQLite's DDL parser
	// rejects, so it is created by hand with plain TEXT storage for the
	// arrays. pq.StringArray round-trips through TEXT fine.
	err = db.Exec(`CREATE TABLE IF NOT EXISTS startups (
		id integer PRIMARY KEY AUTOINCREMENT,
		name text NOT NULL,
		slug text NOT NULL UNIQUE,
		description text,
		logo_url text,
		pitch_deck_url text,
		industry text,
		team text,
		funding_ask integer DEFAULT 0,
		has_revenue numeric DEFAULT 0,
		legal_entity text,
		cohort_tags text,
		is_active numeric DEFAULT 1,
		created_at datetime,
		updated_at datetime
	)`).Error
	if err != nil {
		t.Fatalf("failed to create startups table: %v", err)
	}

	// Clean all tables; the shared memory DB persists across tests
	for _, table := range []string{"investments", "funds_requests", "admin_logs", "investors", "startups", "game_state"} {
		db.Exec("DELETE FROM " + table)
	}

	if err := db.Create(&models.GameState{ID: models.GameStateID}).Error; err != nil {
		t.Fatalf("failed to seed game state: %v", err)
	}

	return db
}

func createTestInvestor(t *testing.T, db *gorm.DB, name, email string, credit int64) *models.Investor {
	investor := &models.Investor{
		Name:           name,
		Email:          email,
		JoinCode:       "jc-" + email,
		StartingCredit: credit,
	}
	if err := db.Create(investor).Error; err != nil {
		t.Fatalf("failed to create investor: %v", err)
	}
	return investor
}

func createTestStartup(t *testing.T, db *gorm.DB, name, slug string, active bool) *models.Startup {
	startup := &models.Startup{
		Name:     name,
		Slug:     slug,
		IsActive: active,
	}
	if err := db.Create(startup).Error; err != nil {
		t.Fatalf("failed to create startup: %v", err)
	}
	return startup
}

func newTestInvestmentService(db *gorm.DB, requireFull bool) *InvestmentService {
	ledger := repository.NewLedger(db)
	states := NewGameStateService(db, nil)
	return NewInvestmentService(db, ledger, states, 500, requireFull)
}

func TestApplyAllocationAndCapitalCheck(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	service := newTestInvestmentService(db, true)

	investor := createTestInvestor(t, db, "Alice", "alice@test.io", 2000)
	alpha := createTestStartup(t, db, "Alpha", "alpha", true)
	beta := createTestStartup(t, db, "Beta", "beta", true)

	if _, err := service.Apply(ctx, investor.ID, alpha.ID, 500, nil); err != nil {
		t.Fatalf("Apply 500 to alpha failed: %v", err)
	}
	if _, err := service.Apply(ctx, investor.ID, beta.ID, 1500, nil); err != nil {
		t.Fatalf("Apply 1500 to beta failed: %v", err)
	}

	// 2000 to beta would need 2000 on top of the 500 held by alpha
	_, err := service.Apply(ctx, investor.ID, beta.ID, 2000, nil)
	var insufficient *InsufficientFundsError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientFundsError, got %v", err)
	}
	if insufficient.Remaining != 1500 {
		t.Errorf("expected remaining 1500, got %d", insufficient.Remaining)
	}

	// Failed apply must not have touched the existing row
	var count int64
	db.Model(&models.Investment{}).Where("investor_id = ?", investor.ID).Count(&count)
	if count != 2 {
		t.Errorf("expected 2 investment rows, got %d", count)
	}

	var existing models.Investment
	db.Where("investor_id = ? AND startup_id = ?", investor.ID, beta.ID).First(&existing)
	if existing.Amount != 1500 {
		t.Errorf("expected beta allocation 1500, got %d", existing.Amount)
	}
}

func TestApplyUpsertsSingleRow(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	service := newTestInvestmentService(db, true)

	investor := createTestInvestor(t, db, "Alice", "alice@test.io", 2000)
	alpha := createTestStartup(t, db, "Alpha", "alpha", true)

	first, err := service.Apply(ctx, investor.ID, alpha.ID, 500, nil)
	if err != nil {
		t.Fatalf("first apply failed: %v", err)
	}

	// Same amount again: ledger state, totals, and the row ID are unchanged
	again, err := service.Apply(ctx, investor.ID, alpha.ID, 500, nil)
	if err != nil {
		t.Fatalf("same-amount re-apply failed: %v", err)
	}
	if again.ID != first.ID {
		t.Errorf("expected the persisted row ID %s, got %s", first.ID, again.ID)
	}
	if again.Amount != 500 {
		t.Errorf("expected amount 500 after same-amount re-apply, got %d", again.Amount)
	}

	var count, total int64
	db.Model(&models.Investment{}).
		Where("investor_id = ? AND startup_id = ?", investor.ID, alpha.ID).
		Count(&count)
	db.Model(&models.Investment{}).
		Where("startup_id = ?", alpha.ID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total)
	if count != 1 {
		t.Fatalf("expected a single row per (investor, startup), got %d", count)
	}
	if total != 500 {
		t.Errorf("expected total raised 500 after re-apply, got %d", total)
	}

	// A new amount updates the same row in place
	changed, err := service.Apply(ctx, investor.ID, alpha.ID, 1000, nil)
	if err != nil {
		t.Fatalf("re-apply with new amount failed: %v", err)
	}
	if changed.ID != first.ID {
		t.Errorf("expected row ID kept across update, got %s", changed.ID)
	}

	var row models.Investment
	db.Where("investor_id = ? AND startup_id = ?", investor.ID, alpha.ID).First(&row)
	if row.Amount != 1000 {
		t.Errorf("expected amount 1000 after re-apply, got %d", row.Amount)
	}
	if row.ID != first.ID {
		t.Errorf("expected stored row to keep ID %s, got %s", first.ID, row.ID)
	}

	db.Model(&models.Investment{}).
		Where("investor_id = ? AND startup_id = ?", investor.ID, alpha.ID).
		Count(&count)
	if count != 1 {
		t.Fatalf("expected a single row after amount change, got %d", count)
	}
}

func TestApplyZeroRemovesPosition(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	service := newTestInvestmentService(db, true)

	investor := createTestInvestor(t, db, "Alice", "alice@test.io", 2000)
	alpha := createTestStartup(t, db, "Alpha", "alpha", true)

	if _, err := service.Apply(ctx, investor.ID, alpha.ID, 500, nil); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	applied, err := service.Apply(ctx, investor.ID, alpha.ID, 0, nil)
	if err != nil {
		t.Fatalf("apply zero failed: %v", err)
	}
	if applied.Amount != 0 {
		t.Errorf("expected returned amount 0, got %d", applied.Amount)
	}

	var count int64
	db.Model(&models.Investment{}).Where("investor_id = ?", investor.ID).Count(&count)
	if count != 0 {
		t.Errorf("expected position removed, found %d rows", count)
	}
}

func TestApplyIncrementPolicy(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	service := newTestInvestmentService(db, true)

	investor := createTestInvestor(t, db, "Alice", "alice@test.io", 2000)
	alpha := createTestStartup(t, db, "Alpha", "alpha", true)

	if _, err := service.Apply(ctx, investor.ID, alpha.ID, 250, nil); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for non-multiple, got %v", err)
	}
	if _, err := service.Apply(ctx, investor.ID, alpha.ID, -500, nil); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for negative amount, got %v", err)
	}
}

func TestApplyRejectedWhileLocked(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	service := newTestInvestmentService(db, true)

	investor := createTestInvestor(t, db, "Alice", "alice@test.io", 2000)
	alpha := createTestStartup(t, db, "Alpha", "alpha", true)

	db.Model(&models.GameState{}).Where("id = ?", models.GameStateID).Update("locked", true)

	if _, err := service.Apply(ctx, investor.ID, alpha.ID, 500, nil); !errors.Is(err, ErrGameLocked) {
		t.Errorf("expected ErrGameLocked, got %v", err)
	}
	if _, err := service.Submit(ctx, investor.ID); !errors.Is(err, ErrGameLocked) {
		t.Errorf("expected ErrGameLocked on submit, got %v", err)
	}
}

func TestApplyRejectedForInactiveStartup(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	service := newTestInvestmentService(db, true)

	investor := createTestInvestor(t, db, "Alice", "alice@test.io", 2000)
	dormant := createTestStartup(t, db, "Dormant", "dormant", false)

	if _, err := service.Apply(ctx, investor.ID, dormant.ID, 500, nil); !errors.Is(err, ErrInactiveStartup) {
		t.Errorf("expected ErrInactiveStartup, got %v", err)
	}
}

func TestApplyRejectedAfterSubmit(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	service := newTestInvestmentService(db, true)

	investor := createTestInvestor(t, db, "Alice", "alice@test.io", 2000)
	alpha := createTestStartup(t, db, "Alpha", "alpha", true)

	db.Model(&models.Investor{}).Where("id = ?", investor.ID).Update("submitted", true)

	if _, err := service.Apply(ctx, investor.ID, alpha.ID, 500, nil); !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("expected ErrAlreadySubmitted, got %v", err)
	}
}

func TestSubmitRequiresFullAllocation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	service := newTestInvestmentService(db, true)

	investor := createTestInvestor(t, db, "Alice", "alice@test.io", 2000)
	alpha := createTestStartup(t, db, "Alpha", "alpha", true)
	beta := createTestStartup(t, db, "Beta", "beta", true)

	if _, err := service.Apply(ctx, investor.ID, alpha.ID, 500, nil); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	if _, err := service.Submit(ctx, investor.ID); !errors.Is(err, ErrIncompleteAllocation) {
		t.Fatalf("expected ErrIncompleteAllocation, got %v", err)
	}

	if _, err := service.Apply(ctx, investor.ID, beta.ID, 1500, nil); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	submitted, err := service.Submit(ctx, investor.ID)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if !submitted.Submitted {
		t.Error("expected investor marked submitted")
	}

	if _, err := service.Submit(ctx, investor.ID); !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("expected ErrAlreadySubmitted on re-submit, got %v", err)
	}
}

func TestSubmitPartialWhenPolicyOff(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	service := newTestInvestmentService(db, false)

	investor := createTestInvestor(t, db, "Alice", "alice@test.io", 2000)
	alpha := createTestStartup(t, db, "Alpha", "alpha", true)

	if _, err := service.Apply(ctx, investor.ID, alpha.ID, 500, nil); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if _, err := service.Submit(ctx, investor.ID); err != nil {
		t.Fatalf("expected partial submit to pass with policy off, got %v", err)
	}
}

func TestWithRetryExhaustion(t *testing.T) {
	db := setupTestDB(t)
	service := newTestInvestmentService(db, true)

	// Transient contention is retried a bounded number of times, then
	// surfaced as ErrRetryExhausted.
	attempts := 0
	err := service.withRetry(func() error {
		attempts++
		return errors.New("database is locked")
	})
	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("expected ErrRetryExhausted, got %v", err)
	}
	if attempts != maxApplyAttempts {
		t.Errorf("expected %d attempts, got %d", maxApplyAttempts, attempts)
	}

	// Business-rule rejections are returned immediately, never retried
	attempts = 0
	err = service.withRetry(func() error {
		attempts++
		return ErrGameLocked
	})
	if !errors.Is(err, ErrGameLocked) {
		t.Errorf("expected ErrGameLocked, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected a single attempt, got %d", attempts)
	}
}

func TestConcurrentAppliesCannotOverspend(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	service := newTestInvestmentService(db, true)

	investor := createTestInvestor(t, db, "Alice", "alice@test.io", 1000)
	alpha := createTestStartup(t, db, "Alpha", "alpha", true)
	beta := createTestStartup(t, db, "Beta", "beta", true)

	// Both allocations are individually affordable; together they exceed
	// the credit, so exactly one must be rejected.
	var wg sync.WaitGroup
	results := make(chan error, 2)
	for _, startupID := range []uint{alpha.ID, beta.ID} {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			_, err := service.Apply(ctx, investor.ID, id, 1000, nil)
			results <- err
		}(startupID)
	}
	wg.Wait()
	close(results)

	var successes, rejections int
	for err := range results {
		switch {
		case err == nil:
			successes++
		default:
			var insufficient *InsufficientFundsError
			if !errors.As(err, &insufficient) {
				t.Fatalf("unexpected error: %v", err)
			}
			rejections++
		}
	}
	if successes != 1 || rejections != 1 {
		t.Fatalf("expected 1 success and 1 rejection, got %d/%d", successes, rejections)
	}

	var total int64
	db.Model(&models.Investment{}).
		Where("investor_id = ?", investor.ID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total)
	if total != 1000 {
		t.Errorf("expected total invested 1000, got %d", total)
	}
}
