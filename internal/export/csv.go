package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
)

// csvHeader is the fixed part of the CSV header row from spec.md §6.
// WriteCSV appends one protocol_breakdown column per tag present in the
// report, sorted by name, using the same Tag() names JSON uses as map keys.
var csvHeader = []string{
	"session_id", "timestamp", "packets_sent", "packets_failed", "bytes_sent",
	"duration_secs", "packets_per_second", "megabits_per_second",
}

// WriteCSV appends one row for r to the CSV file at path, writing the
// header first if the file doesn't already exist. protocol_breakdown is
// flattened into columns named after every protocol tag seen, sorted for a
// deterministic header across runs with different protocol mixes.
func WriteCSV(r Report, path string) error {
	_, statErr := os.Stat(path)
	needsHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("export: open csv report: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	tags := make([]string, 0, len(r.ProtocolBreakdown))
	for tag := range r.ProtocolBreakdown {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	if needsHeader {
		header := append(append([]string{}, csvHeader...), tags...)
		if err := w.Write(header); err != nil {
			return fmt.Errorf("export: write csv header: %w", err)
		}
	}

	row := []string{
		r.SessionID,
		r.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
		strconv.FormatUint(r.PacketsSent, 10),
		strconv.FormatUint(r.PacketsFailed, 10),
		strconv.FormatUint(r.BytesSent, 10),
		strconv.FormatFloat(r.DurationSecs, 'f', 3, 64),
		strconv.FormatFloat(r.PacketsPerSecond, 'f', 2, 64),
		strconv.FormatFloat(r.MegabitsPerSecond, 'f', 2, 64),
	}
	for _, tag := range tags {
		row = append(row, strconv.FormatUint(r.ProtocolBreakdown[tag], 10))
	}

	if err := w.Write(row); err != nil {
		return fmt.Errorf("export: write csv row: %w", err)
	}
	return nil
}
