// Package persistence implements Persistence (C14): the golden set
// loader, the per-run generation history log, and the bandit snapshot
// file, all rooted under a configured data directory (spec.md §4.14,
// §6.4, §6.5).
package persistence

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/quillhq/promptforge/internal/genome"
	"github.com/quillhq/promptforge/pkg/apperr"
)

// LoadGoldenSet reads and validates the golden set file at path: a JSON
// array of GoldenExamples (spec.md §6.4). Every record is validated with
// genome.GoldenExample.Validate(); the first violation fails the whole
// load, surfaced as apperr.KindGoldenSetInvalid.
func LoadGoldenSet(path string) ([]genome.GoldenExample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindGoldenSetInvalid, err, fmt.Sprintf("read golden set %s", path))
	}

	var examples []genome.GoldenExample
	if err := json.Unmarshal(data, &examples); err != nil {
		return nil, apperr.Wrap(apperr.KindGoldenSetInvalid, err, "parse golden set JSON")
	}

	if len(examples) == 0 {
		return nil, apperr.New(apperr.KindGoldenSetInvalid, fmt.Sprintf("golden set %s is empty", path))
	}

	for i, ex := range examples {
		if err := ex.Validate(); err != nil {
			return nil, apperr.Wrap(apperr.KindGoldenSetInvalid, err, fmt.Sprintf("golden example %d", i))
		}
	}

	return examples, nil
}
