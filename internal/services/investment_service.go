package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"startup-fund/internal/models"
	"startup-fund/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxApplyAttempts = 3

// InvestmentService validates and applies allocation changes against the
// ledger. Every mutation runs inside one transaction: the investor row is
// locked and the capital sum re-checked there, so two concurrent applies for
// the same investor can never both pass a stale sum check.
type InvestmentService struct {
	db     *gorm.DB
	ledger *repository.Ledger
	states *GameStateService

	increment         int64
	requireFullSubmit bool
}

func NewInvestmentService(
	db *gorm.DB,
	ledger *repository.Ledger,
	states *GameStateService,
	increment int64,
	requireFullSubmit bool,
) *InvestmentService {
	return &InvestmentService{
		db:                db,
		ledger:            ledger,
		states:            states,
		increment:         increment,
		requireFullSubmit: requireFullSubmit,
	}
}

// Apply sets an investor's allocation for one startup to amount. Amount 0
// deletes the position; any other amount upserts the single row for the
// (investor, startup) pair. On success the new snapshot is projected and
// broadcast before returning.
func (s *InvestmentService) Apply(
	ctx context.Context,
	investorID uint,
	startupID uint,
	amount int64,
	fingerprint *string,
) (*models.Investment, error) {
	// Fast-path rejection only; the authoritative lock check happens inside
	// the transaction, alongside the mutation.
	if state, err := s.ledger.GetGameState(ctx); err == nil && state.Locked {
		return nil, ErrGameLocked
	}

	var applied *models.Investment

	err := s.withRetry(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			led := s.ledger.WithTx(tx)

			state, err := led.GetGameState(ctx)
			if err != nil {
				return fmt.Errorf("failed to read game state: %w", err)
			}
			if state.Locked {
				return ErrGameLocked
			}

			investor, err := led.GetInvestorForUpdate(ctx, investorID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("investor %d: %w", investorID, ErrNotFound)
				}
				return err
			}
			if investor.Submitted {
				return ErrAlreadySubmitted
			}

			startup, err := led.GetStartupByID(ctx, startupID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("startup %d: %w", startupID, ErrNotFound)
				}
				return err
			}
			if !startup.IsActive {
				return ErrInactiveStartup
			}

			if amount < 0 {
				return fmt.Errorf("amount must not be negative: %w", ErrInvalidAmount)
			}
			if amount != 0 && amount%s.increment != 0 {
				return fmt.Errorf("amount must be a multiple of %d: %w", s.increment, ErrInvalidAmount)
			}

			if amount == 0 {
				if err := led.DeleteInvestment(ctx, investorID, startupID); err != nil {
					return fmt.Errorf("failed to remove investment: %w", err)
				}
				applied = &models.Investment{InvestorID: investorID, StartupID: startupID, Amount: 0}
				return nil
			}

			otherInvested, err := led.SumInvestedExcluding(ctx, investorID, startupID)
			if err != nil {
				return fmt.Errorf("failed to sum investments: %w", err)
			}
			if otherInvested+amount > investor.StartingCredit {
				return &InsufficientFundsError{
					Requested: amount,
					Remaining: investor.StartingCredit - otherInvested,
				}
			}

			investment := &models.Investment{
				ID:                uuid.New(),
				InvestorID:        investorID,
				StartupID:         startupID,
				Amount:            amount,
				DeviceFingerprint: fingerprint,
			}
			if err := led.UpsertInvestment(ctx, investment); err != nil {
				return fmt.Errorf("failed to upsert investment: %w", err)
			}
			// On conflict the row keeps its original ID; read back what
			// was actually persisted.
			persisted, err := led.GetInvestment(ctx, investorID, startupID)
			if err != nil {
				return fmt.Errorf("failed to read investment back: %w", err)
			}
			applied = persisted
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if fingerprint != nil {
		// Advisory signal only, recorded alongside the investment.
		log.Printf("Investment by investor %d on startup %d (fingerprint %s)", investorID, startupID, *fingerprint)
	} else {
		log.Printf("Investment by investor %d on startup %d: %d", investorID, startupID, amount)
	}

	s.states.PublishState(ctx)
	return applied, nil
}

// Submit finalizes an investor's allocations. When the full-allocation
// policy is on, remaining must be exactly zero.
func (s *InvestmentService) Submit(ctx context.Context, investorID uint) (*models.Investor, error) {
	if state, err := s.ledger.GetGameState(ctx); err == nil && state.Locked {
		return nil, ErrGameLocked
	}

	var submitted *models.Investor

	err := s.withRetry(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			led := s.ledger.WithTx(tx)

			state, err := led.GetGameState(ctx)
			if err != nil {
				return fmt.Errorf("failed to read game state: %w", err)
			}
			if state.Locked {
				return ErrGameLocked
			}

			investor, err := led.GetInvestorForUpdate(ctx, investorID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("investor %d: %w", investorID, ErrNotFound)
				}
				return err
			}
			if investor.Submitted {
				return ErrAlreadySubmitted
			}

			if s.requireFullSubmit {
				invested, err := led.SumInvested(ctx, investorID)
				if err != nil {
					return fmt.Errorf("failed to sum investments: %w", err)
				}
				if remaining := investor.StartingCredit - invested; remaining != 0 {
					return fmt.Errorf("%d credits unallocated: %w", remaining, ErrIncompleteAllocation)
				}
			}

			investor.Submitted = true
			if err := led.SaveInvestor(ctx, investor); err != nil {
				return fmt.Errorf("failed to save investor: %w", err)
			}
			submitted = investor
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Investor %d submitted allocations", investorID)

	s.states.PublishState(ctx)
	return submitted, nil
}

// withRetry re-runs the transaction a bounded number of times for transient
// storage conditions (serialization failures, deadlocks, lock timeouts).
// Business-rule rejections are returned immediately.
func (s *InvestmentService) withRetry(op func() error) error {
	var err error
	for attempt := 1; attempt <= maxApplyAttempts; attempt++ {
		err = op()
		if err == nil || !isRetryable(err) {
			return err
		}
		log.Printf("Retrying transaction after transient failure (attempt %d): %v", attempt, err)
		time.Sleep(time.Duration(attempt) * 50 * time.Millisecond)
	}
	return fmt.Errorf("transaction did not complete after %d attempts (%v): %w", maxApplyAttempts, err, ErrRetryExhausted)
}

// isRetryable reports whether the error is a transient storage condition.
// Postgres surfaces these as SQLSTATE 40001 (serialization failure), 40P01
// (deadlock) and 55P03 (lock not available); SQLite reports write contention
// as a busy/locked error.
func isRetryable(err error) bool {
	var state interface{ SQLState() string }
	if errors.As(err, &state) {
		switch state.SQLState() {
		case "40001", "40P01", "55P03":
			return true
		}
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "database table is locked")
}
