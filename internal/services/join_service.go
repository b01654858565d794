package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"

	"startup-fund/internal/models"
	"startup-fund/internal/repository"

	"github.com/mr-tron/base58"
	"gorm.io/gorm"
)

// JoinService handles the investor join flow: find-or-create by email,
// granting the configured starting credit to new investors.
type JoinService struct {
	ledger         *repository.Ledger
	startingCredit int64
}

func NewJoinService(ledger *repository.Ledger, startingCredit int64) *JoinService {
	return &JoinService{ledger: ledger, startingCredit: startingCredit}
}

// Join finds an investor by email or creates one with the default capital.
// A returning email logs back into the existing account.
func (s *JoinService) Join(ctx context.Context, name, email string) (*models.Investor, error) {
	existing, err := s.ledger.GetInvestorByEmail(ctx, email)
	if err == nil {
		log.Printf("Investor logged in: %s (ID: %d)", email, existing.ID)
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	code, err := generateJoinCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate join code: %w", err)
	}

	investor := &models.Investor{
		Name:           name,
		Email:          email,
		JoinCode:       code,
		StartingCredit: s.startingCredit,
	}
	if err := s.ledger.CreateInvestor(ctx, investor); err != nil {
		return nil, fmt.Errorf("failed to create investor: %w", err)
	}

	log.Printf("New investor created: %s (ID: %d, credit: %d)", email, investor.ID, investor.StartingCredit)
	return investor, nil
}

// generateJoinCode returns a short base58 code usable in share links
func generateJoinCode() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base58.Encode(buf), nil
}
