package audit

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func TestRecordAndRecent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	log, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer log.Close()

	ctx := context.Background()
	session := uuid.New()
	if err := log.Record(ctx, session, "PUT", "BL02:MONO:ENERGY", 7112); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := log.Record(ctx, session, "MOVE", "BL02:SAMPLE:X", 1000); err != nil {
		t.Fatalf("Record: %v", err)
	}

	entries, err := log.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Verb != "MOVE" || entries[0].Target != "BL02:SAMPLE:X" {
		t.Fatalf("expected newest-first ordering, got %+v", entries[0])
	}
	if entries[0].SessionID != session.String() {
		t.Fatalf("expected session id to round-trip, got %q", entries[0].SessionID)
	}
}

func TestRecentLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	log, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer log.Close()

	ctx := context.Background()
	session := uuid.New()
	for i := 0; i < 5; i++ {
		if err := log.Record(ctx, session, "PUT", "X", float64(i)); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	entries, err := log.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected limit to bound result to 2, got %d", len(entries))
	}
}
