package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/grantscout/grantscout/app/database"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	db, err := database.NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := database.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return NewSQLiteStore(db)
}

func TestSQLiteStoreGetMiss(t *testing.T) {
	store := newTestStore(t)

	_, ok, err := store.Get(context.Background(), "search:missing")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Error("Expected miss for absent key")
	}
}

func TestSQLiteStoreSetGetRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "search:q1", `{"results":[]}`, time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	value, ok, err := store.Get(ctx, "search:q1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok {
		t.Fatal("Expected hit for stored key")
	}
	if value != `{"results":[]}` {
		t.Errorf("Expected stored value back, got %s", value)
	}
}

func TestSQLiteStoreOverwrite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "search:q1", "first", time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Set(ctx, "search:q1", "second", time.Hour); err != nil {
		t.Fatalf("Second set failed: %v", err)
	}

	value, ok, err := store.Get(ctx, "search:q1")
	if err != nil || !ok {
		t.Fatalf("Get failed: %v, ok=%v", err, ok)
	}
	if value != "second" {
		t.Errorf("Expected last write to win, got %s", value)
	}
}

func TestSQLiteStoreExpiry(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "search:q1", "value", -time.Second); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	_, ok, err := store.Get(ctx, "search:q1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Error("Expected expired entry to read as a miss")
	}
}

func TestSQLiteStoreDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "search:q1", "value", time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Delete(ctx, "search:q1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, ok, _ := store.Get(ctx, "search:q1"); ok {
		t.Error("Expected miss after delete")
	}

	// Deleting an absent key is not an error.
	if err := store.Delete(ctx, "search:q1"); err != nil {
		t.Errorf("Delete of absent key failed: %v", err)
	}
}

func TestSQLiteStoreScanValues(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entries := map[string]string{
		"search:a":          "va",
		"search:b":          "vb",
		"enhanced_search:c": "vc",
	}
	for k, v := range entries {
		if err := store.Set(ctx, k, v, time.Hour); err != nil {
			t.Fatalf("Set %s failed: %v", k, err)
		}
	}
	// Expired entries must not be scanned.
	if err := store.Set(ctx, "search:expired", "dead", -time.Second); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	values, err := store.ScanValues(ctx, "search:", 10)
	if err != nil {
		t.Fatalf("ScanValues failed: %v", err)
	}
	if len(values) != 2 {
		t.Fatalf("Expected 2 values under search:, got %d: %v", len(values), values)
	}

	values, err = store.ScanValues(ctx, "search:", 1)
	if err != nil {
		t.Fatalf("ScanValues failed: %v", err)
	}
	if len(values) != 1 {
		t.Errorf("Expected limit to cap scan at 1, got %d", len(values))
	}
}

func TestSQLiteStoreDeleteExpired(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "search:live", "v", time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Set(ctx, "search:dead1", "v", -time.Second); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Set(ctx, "search:dead2", "v", -time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	count, err := store.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("DeleteExpired failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 expired entries pruned, got %d", count)
	}

	if _, ok, _ := store.Get(ctx, "search:live"); !ok {
		t.Error("Live entry should survive pruning")
	}
}
