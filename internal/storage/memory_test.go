package storage

import (
	"context"
	"reflect"
	"testing"

	"github.com/tallyho/tally/internal/model"
)

func TestMemoryStore_RoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	saved := testItems()
	if err := store.Save(ctx, KeyCurrentItems, saved); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	var got []map[string]any
	found, err := store.Load(ctx, KeyCurrentItems, &got)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !found {
		t.Fatal("Expected key to exist after save")
	}
	if len(got) != len(saved) {
		t.Errorf("Expected %d documents, got %d", len(saved), len(got))
	}
}

func TestMemoryStore_MissingKey(t *testing.T) {
	store := NewMemoryStore()

	var dest []map[string]any
	found, err := store.Load(context.Background(), KeyHistory, &dest)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if found {
		t.Error("Expected found=false for missing key")
	}
}

func TestMemoryStore_SnapshotIsolation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	original := testItems()
	if err := store.Save(ctx, KeyCurrentItems, original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Mutating the saved slice must not leak into the stored document.
	original[0].Name = "Changed"

	var loaded []model.LineItem
	if _, err := store.Load(ctx, KeyCurrentItems, &loaded); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded[0].Name != "Milk" {
		t.Errorf("Stored document was mutated through the caller's slice: %+v", loaded[0])
	}
	if !reflect.DeepEqual(loaded, testItems()) {
		t.Errorf("Round trip mismatch: %+v", loaded)
	}
}
