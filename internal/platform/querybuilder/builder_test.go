package querybuilder

import (
	"reflect"
	"testing"
)

func TestSelectWithConditionsAndPaging(t *testing.T) {
	query, args, err := Select("id", "title").
		From("carnivals").
		Where(
			Eq("state_code", "QLD"),
			Eq("is_active", true),
			IsNull("claimed_at"),
		).
		OrderBy("start_date ASC").
		Limit(20).
		Offset(40).
		ToSQL()
	if err != nil {
		t.Fatalf("build select: %v", err)
	}

	want := "SELECT id, title FROM carnivals WHERE state_code = $1 AND is_active = $2 AND claimed_at IS NULL ORDER BY start_date ASC LIMIT 20 OFFSET 40"
	if query != want {
		t.Fatalf("query mismatch:\n got %s\nwant %s", query, want)
	}
	if !reflect.DeepEqual(args, []any{"QLD", true}) {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestSelectForUpdateSuffix(t *testing.T) {
	query, _, err := Select("*").
		From("carnivals").
		Where(Eq("id", int64(7))).
		Suffix("FOR UPDATE").
		ToSQL()
	if err != nil {
		t.Fatalf("build select: %v", err)
	}
	want := "SELECT * FROM carnivals WHERE id = $1 FOR UPDATE"
	if query != want {
		t.Fatalf("query mismatch:\n got %s\nwant %s", query, want)
	}
}

func TestInsertReturning(t *testing.T) {
	query, args, err := InsertInto("clubs").
		Set("name", "Brisbane Bears").
		Set("state_code", "QLD").
		Returning("id", "created_at").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert: %v", err)
	}
	want := "INSERT INTO clubs (name, state_code) VALUES ($1, $2) RETURNING id, created_at"
	if query != want {
		t.Fatalf("query mismatch:\n got %s\nwant %s", query, want)
	}
	if len(args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(args))
	}
}

func TestUpdateWithWhere(t *testing.T) {
	query, args, err := Update("registrations").
		Set("approval_status", "approved").
		Set("rejection_reason", nil).
		Where(Eq("id", int64(3)), Eq("is_active", true)).
		ToSQL()
	if err != nil {
		t.Fatalf("build update: %v", err)
	}
	want := "UPDATE registrations SET approval_status = $1, rejection_reason = $2 WHERE id = $3 AND is_active = $4"
	if query != want {
		t.Fatalf("query mismatch:\n got %s\nwant %s", query, want)
	}
	if len(args) != 4 {
		t.Fatalf("expected 4 args, got %d", len(args))
	}
}

func TestInAndOrConditions(t *testing.T) {
	query, args, err := Select("id").
		From("club_players").
		Where(
			In("id", []any{int64(1), int64(2)}),
			Or(ILike("first_name", "%smi%"), ILike("last_name", "%smi%")),
		).
		ToSQL()
	if err != nil {
		t.Fatalf("build select: %v", err)
	}
	want := "SELECT id FROM club_players WHERE id IN ($1, $2) AND (first_name ILIKE $3 OR last_name ILIKE $4)"
	if query != want {
		t.Fatalf("query mismatch:\n got %s\nwant %s", query, want)
	}
	if len(args) != 4 {
		t.Fatalf("expected 4 args, got %d", len(args))
	}
}

func TestExprPlaceholderRewrite(t *testing.T) {
	query, args, err := Select("COUNT(*)").
		From("registrations").
		Where(
			Eq("carnival_id", int64(9)),
			Expr("(registered_at >= ? OR is_paid = ?)", "2025-01-01", true),
		).
		ToSQL()
	if err != nil {
		t.Fatalf("build select: %v", err)
	}
	want := "SELECT COUNT(*) FROM registrations WHERE carnival_id = $1 AND (registered_at >= $2 OR is_paid = $3)"
	if query != want {
		t.Fatalf("query mismatch:\n got %s\nwant %s", query, want)
	}
	if len(args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(args))
	}
}
