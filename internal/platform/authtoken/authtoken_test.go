package authtoken

import (
	"testing"
	"time"

	"github.com/ausmasters/carnivalhub/internal/domain/user"
)

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)
	clubID := int64(4)
	u := user.User{
		ID:                12,
		Email:             "delegate@club.example",
		IsPrimaryDelegate: true,
		ClubID:            &clubID,
	}

	tokenString, err := issuer.Issue(u)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	principal, err := issuer.VerifyAccessToken(t.Context(), tokenString)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if principal.UserID != 12 || principal.Email != "delegate@club.example" {
		t.Fatalf("unexpected principal: %+v", principal)
	}
	if !principal.IsPrimaryDelegate || principal.ClubID == nil || *principal.ClubID != 4 {
		t.Fatalf("delegate fields lost: %+v", principal)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Minute)
	issued := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return issued }

	tokenString, err := issuer.Issue(user.User{ID: 1, Email: "a@b.example"})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	issuer.now = func() time.Time { return issued.Add(2 * time.Minute) }
	if _, err := issuer.VerifyAccessToken(t.Context(), tokenString); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)
	other := NewIssuer("other-secret", time.Hour)

	tokenString, err := other.Issue(user.User{ID: 1, Email: "a@b.example"})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if _, err := issuer.VerifyAccessToken(t.Context(), tokenString); err == nil {
		t.Fatal("expected token signed with a different secret to be rejected")
	}
}
