// Package audit implements an append-only, hash-chained audit log for a
// simulation run — supplementing spec.md §4.12's lifecycle with a
// tamper-evident record of what the Driver did and when. Each entry's hash
// covers its own fields plus the previous entry's hash, so altering or
// reordering any entry after the fact breaks the chain.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Entry is one chained audit record.
type Entry struct {
	Seq       int
	Timestamp time.Time
	Action    string
	Target    string
	Success   bool
	Details   string
	PrevHash  string
	Hash      string
}

// Log is a thread-safe, append-only hash-chained audit trail. The in-memory
// entries are always kept; file persistence is opt-in via SetAppendFile.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	file    *AppendFile
}

// New builds an empty Log with no file persistence.
func New() *Log {
	return &Log{}
}

// SetAppendFile attaches a file sink: every subsequent Record also appends
// one JSON line to it. Passing nil detaches any previously set file.
func (l *Log) SetAppendFile(f *AppendFile) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.file = f
}

// Record appends a new entry, chaining it to the previous one, and — if a
// file sink is attached — writes it as one JSON line to that file. now is
// caller-supplied so tests (and the Driver's own deterministic replay
// tooling) don't depend on wall-clock time. A file-write failure is printed
// to stderr rather than returned, since the core never reads the audit log
// back and a write failure here must never abort the run it's recording.
func (l *Log) Record(now time.Time, action, target string, success bool, details string) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	prevHash := ""
	if len(l.entries) > 0 {
		prevHash = l.entries[len(l.entries)-1].Hash
	}

	e := Entry{
		Seq:       len(l.entries),
		Timestamp: now,
		Action:    action,
		Target:    target,
		Success:   success,
		Details:   details,
		PrevHash:  prevHash,
	}
	e.Hash = hashEntry(e)
	l.entries = append(l.entries, e)

	if l.file != nil {
		if err := l.file.write(e); err != nil {
			fmt.Fprintf(os.Stderr, "audit: append file write failed: %v\n", err)
		}
	}

	return e
}

// hashEntry computes the SHA-256 hex digest of an entry's fields plus its
// predecessor's hash, binding this entry to the whole chain before it.
func hashEntry(e Entry) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%d|%s|%s|%t|%s|%s",
		e.Seq, e.Timestamp.UnixNano(), e.Action, e.Target, e.Success, e.Details, e.PrevHash)
	return hex.EncodeToString(h.Sum(nil))
}

// Entries returns a copy of every recorded entry, in append order.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Verify walks the chain and reports the first entry whose hash doesn't
// match what Record would have computed for it, or ok=true if the whole
// chain is intact.
func (l *Log) Verify() (ok bool, brokenAt int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	prevHash := ""
	for i, e := range l.entries {
		want := e
		want.PrevHash = prevHash
		if hashEntry(want) != e.Hash || e.PrevHash != prevHash {
			return false, i
		}
		prevHash = e.Hash
	}
	return true, -1
}

// AppendFile is a JSON-lines sink for Log entries: one event per line,
// opened append-only so a crash mid-run can never truncate prior events.
type AppendFile struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// OpenAppendFile opens path for append-only writing, creating it (and its
// permissions) if it does not already exist. The caller is responsible for
// the parent directory existing and for eventually calling Close.
func OpenAppendFile(path string) (*AppendFile, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("audit: open append file %q: %w", path, err)
	}
	return &AppendFile{file: f, enc: json.NewEncoder(f)}, nil
}

func (a *AppendFile) write(e Entry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enc.Encode(e)
}

// Close flushes and closes the underlying file.
func (a *AppendFile) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	_ = a.file.Sync()
	return a.file.Close()
}
