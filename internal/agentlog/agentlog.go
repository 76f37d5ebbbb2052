// Package agentlog records every action the assistant executes.
//
// Entries go to a Sink. The CSV sink keeps them next to the books in
// logs/assistant-log.csv; the Mongo sink in mongo.go serves hosted setups.
package agentlog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Entry is one executed assistant action.
type Entry struct {
	Timestamp      time.Time `bson:"timestamp"`
	Agent          string    `bson:"agent"`
	Action         string    `bson:"action"`
	Details        string    `bson:"details"`
	VerificationID string    `bson:"verification_id,omitempty"`
}

// Sink stores log entries.
type Sink interface {
	Append(ctx context.Context, entries ...Entry) error
}

// LogFile is the CSV log path relative to the company directory.
const LogFile = "logs/assistant-log.csv"

// Header is the first line of LogFile.
const Header = "timestamp,agent,action,details,verification_id"

var columns = strings.Split(Header, ",")

func (e Entry) record() []string {
	return []string{
		e.Timestamp.UTC().Format(time.RFC3339),
		e.Agent,
		e.Action,
		e.Details,
		e.VerificationID,
	}
}

func parseRecord(rec []string) (Entry, error) {
	if len(rec) != len(columns) {
		return Entry{}, fmt.Errorf("want %d columns, have %d", len(columns), len(rec))
	}
	ts, err := time.Parse(time.RFC3339, rec[0])
	if err != nil {
		return Entry{}, fmt.Errorf("bad timestamp %q: %w", rec[0], err)
	}
	return Entry{Timestamp: ts, Agent: rec[1], Action: rec[2], Details: rec[3], VerificationID: rec[4]}, nil
}

// CSVSink appends entries to <root>/logs/assistant-log.csv.
type CSVSink struct {
	path string
	mu   sync.Mutex
}

// NewCSVSink returns a sink for the company directory root.
func NewCSVSink(root string) *CSVSink {
	return &CSVSink{path: filepath.Join(root, LogFile)}
}

// Append writes the header first when the file is new.
func (s *CSVSink) Append(_ context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening assistant log: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat assistant log: %w", err)
	}

	rows := make([][]string, 0, len(entries)+1)
	if info.Size() == 0 {
		rows = append(rows, columns)
	}
	for _, e := range entries {
		rows = append(rows, e.record())
	}
	if err := csv.NewWriter(f).WriteAll(rows); err != nil {
		return fmt.Errorf("writing assistant log: %w", err)
	}
	return nil
}

// Tail returns the last n entries, oldest first. n <= 0 returns them all.
// A log that was never written is empty.
func (s *CSVSink) Tail(n int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening assistant log: %w", err)
	}
	defer f.Close()

	entries, err := readEntries(f, n)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", LogFile, err)
	}
	return entries, nil
}

func readEntries(r io.Reader, n int) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(columns)
	cr.ReuseRecord = true

	if _, err := cr.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}
	var entries []Entry
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return nil, err
		}
		e, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		entries = append(entries, e)
		if n > 0 && len(entries) > n {
			entries = entries[1:]
		}
	}
}
