package auth

import (
	"strings"
	"testing"
	"time"
)

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService("test-secret-at-least-16-chars")
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	return ts
}

func TestNewTokenService_RejectsShortSecret(t *testing.T) {
	if _, err := NewTokenService("short"); err == nil {
		t.Error("NewTokenService() should reject secrets under 16 characters")
	}
}

func TestIssueAndValidate(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.Issue("user-123", "trip@example.com", true)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Errorf("token does not look like a JWT: %q", token)
	}

	sess, err := ts.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if sess.UserID != "user-123" {
		t.Errorf("UserID = %q, want %q", sess.UserID, "user-123")
	}
	if sess.Email != "trip@example.com" {
		t.Errorf("Email = %q, want %q", sess.Email, "trip@example.com")
	}
	if !sess.RequirePasswordChange {
		t.Error("RequirePasswordChange flag was not carried through the token")
	}
}

func TestValidate_ClearedPasswordChangeFlag(t *testing.T) {
	ts := newTestTokenService(t)

	// The rotation path after a password change mints a token with the
	// flag cleared; validate that the new token reflects it.
	token, err := ts.Issue("user-123", "trip@example.com", false)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	sess, err := ts.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if sess.RequirePasswordChange {
		t.Error("RequirePasswordChange should be false after rotation")
	}
}

func TestValidate_Expired(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.issueWithTTL("user-123", "trip@example.com", -time.Minute)
	if err != nil {
		t.Fatalf("issueWithTTL() error = %v", err)
	}

	if _, err := ts.Validate(token); err == nil {
		t.Error("Validate() should reject an expired token")
	}
}

func TestValidate_WrongSecret(t *testing.T) {
	ts := newTestTokenService(t)
	other, err := NewTokenService("a-completely-different-secret")
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}

	token, err := ts.Issue("user-123", "trip@example.com", false)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if _, err := other.Validate(token); err == nil {
		t.Error("Validate() should reject a token signed with another secret")
	}
}

func TestValidate_Garbage(t *testing.T) {
	ts := newTestTokenService(t)

	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := ts.Validate(tok); err == nil {
			t.Errorf("Validate(%q) should fail", tok)
		}
	}
}
