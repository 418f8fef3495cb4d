package test_utils

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// InsertCSS creates a CSS row and returns its id.
func InsertCSS(t *testing.T, db *pgxpool.Pool, code, name string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := db.Exec(context.Background(),
		`INSERT INTO css (id, code, name, is_active) VALUES ($1, $2, $3, true)`,
		id, code, name)
	if err != nil {
		t.Fatalf("failed to insert css %s: %v", code, err)
	}
	return id
}

// InsertUser creates a user row bound to an optional CSS and returns its id.
func InsertUser(t *testing.T, db *pgxpool.Pool, username, role string, cssID *uuid.UUID) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := db.Exec(context.Background(),
		`INSERT INTO users (id, username, first_name, last_name, email, role, css_id)
		VALUES ($1, $2, '', '', $3, $4, $5)`,
		id, username, username+"@cgtsim.qc.ca", role, cssID)
	if err != nil {
		t.Fatalf("failed to insert user %s: %v", username, err)
	}
	return id
}

// CleanTables truncates the mutable tables between tests, keeping reference
// data created by the caller out of scope.
func CleanTables(t *testing.T, db *pgxpool.Pool, tables ...string) {
	t.Helper()
	for _, table := range tables {
		if _, err := db.Exec(context.Background(), "DELETE FROM "+table); err != nil {
			t.Fatalf("failed to clean table %s: %v", table, err)
		}
	}
}
