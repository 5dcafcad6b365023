package authz

import (
	"errors"
	"testing"
	"time"
)

func TestIssueAndParse(t *testing.T) {
	secret := []byte("test-secret")
	tok, exp, err := IssueToken(secret, "ariane", RoleOwner, time.Hour, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expiry should be in the future")
	}
	claims, err := ParseToken(secret, tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Person != "ariane" || claims.Role != RoleOwner {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	tok, _, _ := IssueToken([]byte("a"), "pavel", RoleOwner, time.Hour, time.Now())
	if _, err := ParseToken([]byte("b"), tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestParseRejectsExpired(t *testing.T) {
	secret := []byte("s")
	tok, _, _ := IssueToken(secret, "pavel", RoleOwner, time.Minute, time.Now().Add(-time.Hour))
	if _, err := ParseToken(secret, tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestIsReadOnly(t *testing.T) {
	if !IsReadOnly(RoleViewer) || IsReadOnly(RoleOwner) {
		t.Fatalf("only viewers are read-only")
	}
}
