package catalog

import (
	"encoding/json"
	"fmt"
	"os"
)

// SaveSnapshot writes a snapshot as indented JSON, the same export format the
// schema sync job produces. Useful for seeding and demo fixtures.
func SaveSnapshot(s *Snapshot, path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadSnapshot reads a snapshot previously written by SaveSnapshot.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse snapshot file %s: %w", path, err)
	}
	return &s, nil
}
