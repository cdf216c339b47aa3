package catalog

import (
	"context"
	"testing"
)

func TestSQLiteStore_SetAndGetAttribute(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.SetAttribute(ctx, Attribute{Name: "max_speed", Value: 2.5}); err != nil {
		t.Fatalf("SetAttribute: %v", err)
	}

	attr, err := store.GetAttribute(ctx, "max_speed")
	if err != nil {
		t.Fatalf("GetAttribute: %v", err)
	}
	if attr.Value != 2.5 {
		t.Errorf("Value = %v, want 2.5", attr.Value)
	}

	// overwrite
	if err := store.SetAttribute(ctx, Attribute{Name: "max_speed", Value: 3.0}); err != nil {
		t.Fatalf("SetAttribute (overwrite): %v", err)
	}
	attr, err = store.GetAttribute(ctx, "max_speed")
	if err != nil {
		t.Fatalf("GetAttribute after overwrite: %v", err)
	}
	if attr.Value != 3.0 {
		t.Errorf("Value after overwrite = %v, want 3.0", attr.Value)
	}
}

func TestSQLiteStore_GetAttribute_NotFound(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer store.Close()

	if _, err := store.GetAttribute(context.Background(), "missing"); err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStore_AppendAndListEvents(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if _, err := store.AppendEvent(ctx, "state_transition", map[string]interface{}{"from": "active"}); err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}
	if _, err := store.AppendEvent(ctx, "program_executed", nil); err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}

	events, err := store.ListEvents(ctx, 0)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	if events[0].Name != "program_executed" {
		t.Errorf("expected newest-first ordering, got %+v", events)
	}
}

func TestSQLiteStore_ImplementsStore(t *testing.T) {
	var _ Store = (*SQLiteStore)(nil)
}

func TestSQLiteStore_CloseIsIdempotent(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
