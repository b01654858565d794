package auth

import (
	"testing"
)

func TestGenerateAndValidateToken(t *testing.T) {
	InitJWT("test-secret")

	token, err := GenerateToken(42, "alice@test.io")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.InvestorID != 42 || claims.Email != "alice@test.io" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	InitJWT("first-secret")
	token, err := GenerateToken(1, "alice@test.io")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	InitJWT("second-secret")
	if _, err := ValidateToken(token); err == nil {
		t.Error("expected validation failure after secret rotation")
	}

	InitJWT("first-secret")
	if _, err := ValidateToken("not-a-token"); err == nil {
		t.Error("expected validation failure for garbage input")
	}
}
