package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestIsNotFound(t *testing.T) {
	if !isNotFound(sql.ErrNoRows) {
		t.Fatalf("expected true for sql.ErrNoRows")
	}
	if !isNotFound(fmt.Errorf("scan row: %w", sql.ErrNoRows)) {
		t.Fatalf("expected true for wrapped sql.ErrNoRows")
	}
	if isNotFound(errors.New("connection refused")) {
		t.Fatalf("expected false for unrelated error")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	dup := &pq.Error{Code: "23505", Constraint: "registrations_carnival_club_active_idx"}

	t.Run("matches any constraint", func(t *testing.T) {
		if !isUniqueViolation(dup, "") {
			t.Fatalf("expected true for duplicate-key error")
		}
	})

	t.Run("matches named constraint", func(t *testing.T) {
		if !isUniqueViolation(dup, "registrations_carnival_club_active_idx") {
			t.Fatalf("expected true for matching constraint")
		}
	})

	t.Run("matches active club name index", func(t *testing.T) {
		nameDup := &pq.Error{Code: "23505", Constraint: "clubs_name_active_idx"}
		if !isUniqueViolation(nameDup, "clubs_name_active_idx") {
			t.Fatalf("expected true for club name constraint")
		}
	})

	t.Run("rejects other constraint", func(t *testing.T) {
		if isUniqueViolation(dup, "users_email_key") {
			t.Fatalf("expected false for different constraint")
		}
	})

	t.Run("rejects other code", func(t *testing.T) {
		if isUniqueViolation(&pq.Error{Code: "23503"}, "") {
			t.Fatalf("expected false for foreign-key violation")
		}
	})

	t.Run("rejects plain errors", func(t *testing.T) {
		if isUniqueViolation(errors.New("boom"), "") {
			t.Fatalf("expected false for non-pq error")
		}
	})
}
