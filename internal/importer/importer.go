// Package importer turns bank exports into unbooked bank transactions.
//
// Exports are dropped into <company>/import/. Run parses each file with a
// bank format Parser, appends the transactions to the company's
// transaktioner/ register and moves the file to import/processed/ so the
// next run skips it.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kassabok/kassabok/internal/model"
)

const (
	inboxDir = "import"
	doneDir  = "processed"
)

// Parser reads one bank's export format.
type Parser interface {
	Parse(r io.Reader) ([]model.BankTransaction, error)
	// Format is the short name selected with import --format.
	Format() string
}

// Registry maps format names to parsers. Lookups ignore case.
type Registry struct {
	byFormat map[string]Parser
}

// NewRegistry returns a registry without parsers.
func NewRegistry() *Registry {
	return &Registry{byFormat: map[string]Parser{}}
}

// DefaultRegistry knows every bank format shipped with kassabok.
func DefaultRegistry() *Registry {
	reg := NewRegistry()
	reg.Register(&SwedishParser{})
	return reg
}

// Register panics if the format name is taken.
func (r *Registry) Register(p Parser) {
	name := strings.ToLower(p.Format())
	if _, taken := r.byFormat[name]; taken {
		panic(fmt.Sprintf("importer: format %q registered twice", name))
	}
	r.byFormat[name] = p
}

// Get returns nil for unknown formats.
func (r *Registry) Get(format string) Parser {
	return r.byFormat[strings.ToLower(format)]
}

// Formats lists the registered format names in order.
func (r *Registry) Formats() []string {
	names := make([]string, 0, len(r.byFormat))
	for name := range r.byFormat {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FileInfo is a bank export waiting in the inbox.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// Scan lists the .csv files directly under <root>/import/, sorted by name.
// A missing inbox is not an error.
func Scan(root string) ([]FileInfo, error) {
	inbox := filepath.Join(root, inboxDir)
	entries, err := os.ReadDir(inbox)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("listing %s: %w", inbox, err)
	}

	var files []FileInfo
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{Name: e.Name(), Path: filepath.Join(inbox, e.Name()), Size: info.Size()})
	}
	return files, nil
}

// MarkProcessed moves name from the inbox to import/processed/.
func MarkProcessed(root, name string) error {
	done := filepath.Join(root, inboxDir, doneDir)
	if err := os.MkdirAll(done, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", done, err)
	}
	if err := os.Rename(filepath.Join(root, inboxDir, name), filepath.Join(done, name)); err != nil {
		return fmt.Errorf("archiving %s: %w", name, err)
	}
	return nil
}

// Sink stores parsed transactions and reports how many were new.
type Sink interface {
	Add(txns []model.BankTransaction) (int, error)
}

// Result summarises one imported file.
type Result struct {
	File   string
	Parsed int
	Added  int
}

// Run imports every file Scan finds. A file is archived only after its
// transactions are stored, so a failed run can be repeated; the sink
// drops the duplicates. Results cover the files finished before an error.
func Run(ctx context.Context, root string, p Parser, sink Sink) ([]Result, error) {
	files, err := Scan(root)
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(files))
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := importFile(root, file, p, sink)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func importFile(root string, file FileInfo, p Parser, sink Sink) (Result, error) {
	f, err := os.Open(file.Path)
	if err != nil {
		return Result{}, fmt.Errorf("opening %s: %w", file.Name, err)
	}
	txns, err := p.Parse(f)
	f.Close()
	if err != nil {
		return Result{}, fmt.Errorf("parsing %s as %s: %w", file.Name, p.Format(), err)
	}
	added, err := sink.Add(txns)
	if err != nil {
		return Result{}, fmt.Errorf("storing %s: %w", file.Name, err)
	}
	if err := MarkProcessed(root, file.Name); err != nil {
		return Result{}, err
	}
	return Result{File: file.Name, Parsed: len(txns), Added: added}, nil
}
