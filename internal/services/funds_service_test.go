package services

import (
	"context"
	"errors"
	"testing"

	"startup-fund/internal/models"
	"startup-fund/internal/repository"
)

func TestSubmitFundsRequest(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	funds := NewFundsService(repository.NewLedger(db))

	alice := createTestInvestor(t, db, "Alice", "alice@test.io", 1000)

	var validation *ValidationError
	if _, err := funds.SubmitRequest(ctx, alice.ID, 0, "need more"); !errors.As(err, &validation) {
		t.Errorf("expected ValidationError for non-positive amount, got %v", err)
	}
	if _, err := funds.SubmitRequest(ctx, alice.ID, 500, "   "); !errors.As(err, &validation) {
		t.Errorf("expected ValidationError for blank justification, got %v", err)
	}
	if _, err := funds.SubmitRequest(ctx, 9999, 500, "need more"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown investor, got %v", err)
	}

	request, err := funds.SubmitRequest(ctx, alice.ID, 500, "pipeline looks strong")
	if err != nil {
		t.Fatalf("SubmitRequest failed: %v", err)
	}
	if request.Status != models.FundsRequestStatusPending {
		t.Errorf("expected PENDING, got %s", request.Status)
	}

	// The request alone never touches capital
	var investor models.Investor
	db.First(&investor, alice.ID)
	if investor.StartingCredit != 1000 {
		t.Errorf("expected credit unchanged, got %d", investor.StartingCredit)
	}

	requests, err := funds.GetInvestorRequests(ctx, alice.ID)
	if err != nil {
		t.Fatalf("GetInvestorRequests failed: %v", err)
	}
	if len(requests) != 1 || requests[0].ID != request.ID {
		t.Errorf("expected the created request, got %+v", requests)
	}
}
