package database

import (
	"context"
	"testing"
)

func TestSeedIdempotent(t *testing.T) {
	db, err := Connect(context.Background(), testDSN())
	if err != nil {
		t.Skipf("skipping: DB not available: %v", err)
	}
	defer db.Close()

	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	// Seed only writes into an empty users table, so calling it twice must
	// not fail. The database is not cleared first because other test
	// packages may share it.
	if err := Seed(db); err != nil {
		t.Fatalf("first Seed: %v", err)
	}
	if err := Seed(db); err != nil {
		t.Fatalf("second Seed: %v", err)
	}

	var staffCount int
	if err := db.QueryRow("SELECT COUNT(*) FROM users WHERE is_staff").Scan(&staffCount); err != nil {
		t.Fatalf("count staff users: %v", err)
	}
	if staffCount < 1 {
		t.Errorf("expected at least 1 staff user, got %d", staffCount)
	}

	var categoryCount int
	if err := db.QueryRow("SELECT COUNT(*) FROM categories").Scan(&categoryCount); err != nil {
		t.Fatalf("count categories: %v", err)
	}
	if categoryCount < 1 {
		t.Errorf("expected at least 1 category, got %d", categoryCount)
	}
}
