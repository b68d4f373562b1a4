package auth

import (
	"errors"
	"testing"
	"time"
)

func newTestTokens(t *testing.T, opts ...TokenOption) *TokenService {
	t.Helper()
	svc, err := NewTokenService("test-secret", 15*time.Minute, 7*24*time.Hour, opts...)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return svc
}

func TestIssueAndVerifyAccess(t *testing.T) {
	svc := newTestTokens(t)

	token, exp, err := svc.IssueAccess("user-1", "a@b.kz")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expected future expiration, got %v", exp)
	}

	claims, err := svc.VerifyAccess(token)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	if claims.Email != "a@b.kz" {
		t.Fatalf("unexpected email: %s", claims.Email)
	}
	if claims.ID == "" {
		t.Fatalf("expected a token id")
	}
}

func TestTokenKindIsChecked(t *testing.T) {
	svc := newTestTokens(t)

	access, _, err := svc.IssueAccess("user-1", "a@b.kz")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	refresh, _, err := svc.IssueRefresh("user-1")
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}

	if _, err := svc.VerifyAccess(refresh); !errors.Is(err, ErrWrongTokenKind) {
		t.Fatalf("refresh token accepted as access: %v", err)
	}
	if _, err := svc.VerifyRefresh(access); !errors.Is(err, ErrWrongTokenKind) {
		t.Fatalf("access token accepted as refresh: %v", err)
	}
	if _, err := svc.VerifyRefresh(refresh); err != nil {
		t.Fatalf("VerifyRefresh: %v", err)
	}
}

func TestExpiredTokenIsRejected(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	svc := newTestTokens(t, WithClock(func() time.Time { return clock() }))

	token, _, err := svc.IssueAccess("user-1", "a@b.kz")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	clock = func() time.Time { return now.Add(16 * time.Minute) }
	if _, err := svc.VerifyAccess(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestForgedTokenIsRejected(t *testing.T) {
	svc := newTestTokens(t)
	other, err := NewTokenService("other-secret", 15*time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	forged, _, err := other.IssueAccess("user-1", "a@b.kz")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, err := svc.VerifyAccess(forged); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := svc.VerifyAccess("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}
