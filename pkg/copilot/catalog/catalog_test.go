package catalog

import (
	"path/filepath"
	"testing"
)

func TestDemoSnapshotShape(t *testing.T) {
	snap := DemoSnapshot()

	tables := snap.Tables()
	if len(tables) != 3 {
		t.Fatalf("got %d tables, want 3", len(tables))
	}
	for _, table := range []string{"vendors", "batches", "shipments"} {
		if _, ok := snap.Find(table); !ok {
			t.Errorf("missing table %s", table)
		}
		if len(snap.ColumnsOf(table)) == 0 {
			t.Errorf("table %s has no columns", table)
		}
	}
}

func TestFindIsCaseInsensitive(t *testing.T) {
	snap := DemoSnapshot()
	e, ok := snap.Find("VENDORS")
	if !ok || e.Name != "vendors" {
		t.Errorf("Find(VENDORS) = %+v, %v", e, ok)
	}
}

func TestTableOf(t *testing.T) {
	snap := DemoSnapshot()
	tests := []struct {
		entity string
		want   string
	}{
		{"vendors", "vendors"},
		{"defect_rate", "vendors"},
		{"supplies", "vendors"},
		{"moves", "batches"},
	}
	for _, tt := range tests {
		e, ok := snap.Find(tt.entity)
		if !ok {
			t.Fatalf("entity %s not found", tt.entity)
		}
		if got := snap.TableOf(e); got != tt.want {
			t.Errorf("TableOf(%s) = %s, want %s", tt.entity, got, tt.want)
		}
	}
}

func TestSnapshotRoundTripsThroughFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := SaveSnapshot(DemoSnapshot(), path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Version != "demo-1" {
		t.Errorf("version = %s, want demo-1", loaded.Version)
	}
	if len(loaded.Entities) != len(DemoSnapshot().Entities) {
		t.Errorf("got %d entities, want %d", len(loaded.Entities), len(DemoSnapshot().Entities))
	}
}
