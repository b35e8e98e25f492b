package auth

import "testing"

func TestJWT_RoundTrip(t *testing.T) {
	j, err := NewJWT("test-secret")
	if err != nil {
		t.Fatalf("NewJWT failed: %v", err)
	}

	token, err := j.GenerateUserToken("user-42")
	if err != nil {
		t.Fatalf("GenerateUserToken failed: %v", err)
	}

	claims, err := j.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != "user-42" {
		t.Errorf("Expected user-42, got %s", claims.UserID)
	}
	if claims.Role != "user" {
		t.Errorf("Expected role user, got %s", claims.Role)
	}
}

func TestJWT_RejectsForeignToken(t *testing.T) {
	a, _ := NewJWT("secret-a")
	b, _ := NewJWT("secret-b")

	token, err := a.GenerateUserToken("user-1")
	if err != nil {
		t.Fatalf("GenerateUserToken failed: %v", err)
	}

	if _, err := b.ValidateToken(token); err == nil {
		t.Error("Expected validation to fail with a different secret")
	}
}

func TestNewJWT_RequiresSecret(t *testing.T) {
	if _, err := NewJWT(""); err == nil {
		t.Error("Expected error for empty secret")
	}
}
