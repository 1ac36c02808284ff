package history

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind is the type of lifecycle event being recorded.
type Kind string

const (
	KindIssued   Kind = "issued"
	KindRenewed  Kind = "renewed"
	KindRevoked  Kind = "revoked"
	KindImported Kind = "imported"
	KindDeleted  Kind = "deleted"
)

// Event is one append-only audit record. Events are never rewritten and are
// not used to derive current state; the inventory is always recomputed from
// the stores.
type Event struct {
	ID       string    `json:"id"`
	Time     time.Time `json:"time"`
	CertName string    `json:"cert_name"`
	Kind     Kind      `json:"kind"`
	Detail   string    `json:"detail,omitempty"`
}

// Log is an append-only JSONL event log.
type Log struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewLog creates an event log backed by the given file.
func NewLog(path string) *Log {
	return &Log{path: path, now: time.Now}
}

// Append records one event. The write is a single O_APPEND line; existing
// records are never touched.
func (l *Log) Append(certName string, kind Kind, detail string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	ev := Event{
		ID:       uuid.NewString(),
		Time:     l.now().UTC(),
		CertName: certName,
		Kind:     kind,
		Detail:   detail,
	}

	line, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal history event: %w", err)
	}
	line = append(line, '\n')

	if err := os.MkdirAll(filepath.Dir(l.path), 0o700); err != nil {
		return fmt.Errorf("create history directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open history log: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("append history event: %w", err)
	}
	return nil
}

// Tail returns the most recent n events, oldest first. Malformed lines are
// skipped; a missing log yields an empty slice.
func (l *Log) Tail(n int) ([]Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open history log: %w", err)
	}
	defer func() { _ = f.Close() }()

	var events []Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var ev Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read history log: %w", err)
	}

	if n > 0 && len(events) > n {
		events = events[len(events)-n:]
	}
	return events, nil
}

// Path returns the log file location.
func (l *Log) Path() string {
	return l.path
}
