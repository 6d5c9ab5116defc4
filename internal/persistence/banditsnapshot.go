package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/quillhq/promptforge/internal/bandit"
)

// WriteBanditSnapshot serializes snaps to path via a temp-file-then-rename,
// so a reader never observes a partially written snapshot (spec.md §6.5:
// "bandit/snapshot.json: arm table; atomic rename on write").
func WriteBanditSnapshot(path string, snaps []bandit.ArmSnapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("persistence: create bandit snapshot dir: %w", err)
	}

	data, err := json.Marshal(snaps)
	if err != nil {
		return fmt.Errorf("persistence: marshal bandit snapshot: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("persistence: write bandit snapshot temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("persistence: rename bandit snapshot: %w", err)
	}
	return nil
}

// ReadBanditSnapshot loads the arm table at path. A missing file is not
// an error: callers start the bandit fresh in that case.
func ReadBanditSnapshot(path string) ([]bandit.ArmSnapshot, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("persistence: read bandit snapshot: %w", err)
	}

	var snaps []bandit.ArmSnapshot
	if err := json.Unmarshal(data, &snaps); err != nil {
		return nil, fmt.Errorf("persistence: parse bandit snapshot: %w", err)
	}
	return snaps, nil
}
