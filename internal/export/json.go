package export

import (
	"encoding/json"
	"fmt"
	"os"
)

// WriteJSON marshals a Report to indented JSON and writes it to path,
// mirroring pkg/reporting/storage.go's SaveReport encoding.
func WriteJSON(r Report, path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("export: marshal json report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("export: write json report: %w", err)
	}
	return nil
}

// ReadJSON loads a previously written report, used by ListReports and by
// callers wanting to compare or replay a past session.
func ReadJSON(path string) (Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Report{}, fmt.Errorf("export: read json report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return Report{}, fmt.Errorf("export: unmarshal json report: %w", err)
	}
	return r, nil
}
