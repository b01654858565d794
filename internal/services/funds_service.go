package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"startup-fund/internal/models"
	"startup-fund/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FundsService handles investor-side funds requests. A request never touches
// capital; only admin approval does.
type FundsService struct {
	ledger *repository.Ledger
}

func NewFundsService(ledger *repository.Ledger) *FundsService {
	return &FundsService{ledger: ledger}
}

// SubmitRequest creates a pending funds request for an investor
func (s *FundsService) SubmitRequest(
	ctx context.Context,
	investorID uint,
	amount int64,
	justification string,
) (*models.FundsRequest, error) {
	if amount <= 0 {
		return nil, &ValidationError{Message: "requested amount must be positive"}
	}
	if strings.TrimSpace(justification) == "" {
		return nil, &ValidationError{Message: "justification is required"}
	}

	if _, err := s.ledger.GetInvestorByID(ctx, investorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("investor %d: %w", investorID, ErrNotFound)
		}
		return nil, err
	}

	request := &models.FundsRequest{
		ID:            uuid.New(),
		InvestorID:    investorID,
		Amount:        amount,
		Justification: justification,
		Status:        models.FundsRequestStatusPending,
	}
	if err := s.ledger.CreateFundsRequest(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to create funds request: %w", err)
	}

	log.Printf("Funds request %s created by investor %d for %d", request.ID, investorID, amount)
	return request, nil
}

// GetInvestorRequests lists an investor's own requests, newest first
func (s *FundsService) GetInvestorRequests(ctx context.Context, investorID uint) ([]models.FundsRequest, error) {
	return s.ledger.ListFundsRequestsByInvestor(ctx, investorID)
}
