package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/packetgen/packetgen/internal/logging"
)

// Format selects which file encoding(s) Storage writes per session,
// matching the run --export flag's {json|csv|both} values (spec.md §6).
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatBoth Format = "both"
)

// Storage persists Reports under a directory and prunes old ones, grounded
// on pkg/reporting/storage.go's Storage{outputDir, keepLastN}.
type Storage struct {
	outputDir string
	keepLastN int
	log       *logging.Logger
}

// NewStorage creates the output directory if needed and returns a Storage
// bound to it. keepLastN <= 0 disables retention pruning.
func NewStorage(outputDir string, keepLastN int, log *logging.Logger) (*Storage, error) {
	if log == nil {
		log = logging.Nop()
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("export: create output dir: %w", err)
	}
	return &Storage{outputDir: outputDir, keepLastN: keepLastN, log: log}, nil
}

// Save writes r in the requested format(s) under s's output directory,
// named after the session ID, and prunes old JSON reports if retention is
// enabled. It returns the path(s) written.
func (s *Storage) Save(r Report, format Format) ([]string, error) {
	var written []string

	if format == FormatJSON || format == FormatBoth {
		path := filepath.Join(s.outputDir, fmt.Sprintf("packetgen-%s.json", r.SessionID))
		if err := WriteJSON(r, path); err != nil {
			return written, err
		}
		written = append(written, path)
		s.log.Info("json report saved", "path", path)
	}

	if format == FormatCSV || format == FormatBoth {
		path := filepath.Join(s.outputDir, "packetgen.csv")
		if err := WriteCSV(r, path); err != nil {
			return written, err
		}
		written = append(written, path)
		s.log.Info("csv row appended", "path", path)
	}

	if s.keepLastN > 0 {
		if err := s.pruneOldReports(); err != nil {
			s.log.Warn("failed to prune old reports", "error", err.Error())
		}
	}

	return written, nil
}

// ListReports returns every JSON report under the output directory, newest
// first by the embedded timestamp, for `system` diagnostics and tests.
func (s *Storage) ListReports() ([]Report, error) {
	entries, err := os.ReadDir(s.outputDir)
	if err != nil {
		return nil, fmt.Errorf("export: list reports: %w", err)
	}

	reports := make([]Report, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		r, err := ReadJSON(filepath.Join(s.outputDir, e.Name()))
		if err != nil {
			s.log.Warn("failed to load report", "file", e.Name(), "error", err.Error())
			continue
		}
		reports = append(reports, r)
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Timestamp.After(reports[j].Timestamp)
	})
	return reports, nil
}

// pruneOldReports deletes the oldest JSON reports beyond keepLastN.
func (s *Storage) pruneOldReports() error {
	reports, err := s.ListReports()
	if err != nil {
		return err
	}
	if len(reports) <= s.keepLastN {
		return nil
	}

	for _, r := range reports[s.keepLastN:] {
		path := filepath.Join(s.outputDir, fmt.Sprintf("packetgen-%s.json", r.SessionID))
		if err := os.Remove(path); err != nil {
			s.log.Warn("failed to delete old report", "path", path, "error", err.Error())
			continue
		}
		s.log.Debug("deleted old report", "path", path)
	}
	return nil
}
