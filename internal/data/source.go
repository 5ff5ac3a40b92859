// Package data loads tabular data files used as scenario payloads.
package data

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"benchkit/internal/core"
)

// Mode defines how rows are handed out.
type Mode string

const (
	// ModeSequential walks the rows in order, wrapping around.
	ModeSequential Mode = "sequential"
	// ModeRandom picks a row uniformly at random on every call.
	ModeRandom Mode = "random"
)

// Row is one record of a data file.
type Row map[string]any

// Source hands out rows of a loaded file. Safe for concurrent use.
type Source struct {
	name string
	rows []Row
	mode Mode

	mu   sync.Mutex
	next int
	rng  *rand.Rand
}

func NewSource(name string, rows []Row, mode Mode) *Source {
	return NewSeededSource(name, rows, mode, rand.Uint64())
}

// NewSeededSource is NewSource with a fixed random seed.
func NewSeededSource(name string, rows []Row, mode Mode, seed uint64) *Source {
	if mode == "" {
		mode = ModeSequential
	}
	return &Source{
		name: name,
		rows: rows,
		mode: mode,
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (s *Source) Name() string { return s.name }

func (s *Source) Len() int { return len(s.rows) }

func (s *Source) Mode() Mode { return s.mode }

// Rows returns every row in file order.
func (s *Source) Rows() []Row { return s.rows }

// Next returns the next row according to the mode, or nil for an empty source.
func (s *Source) Next() Row {
	if len(s.rows) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == ModeRandom {
		return s.rows[s.rng.IntN(len(s.rows))]
	}
	row := s.rows[s.next]
	s.next = (s.next + 1) % len(s.rows)
	return row
}

// Reset rewinds a sequential source to its first row.
func (s *Source) Reset() {
	s.mu.Lock()
	s.next = 0
	s.mu.Unlock()
}

// Variables exposes row fields as data.<field> for template substitution.
type Variables Row

func (v Variables) Get(key string) (string, bool) {
	field, ok := strings.CutPrefix(key, "data.")
	if !ok {
		return "", false
	}
	val, ok := v[field]
	if !ok {
		return "", false
	}
	return fmt.Sprint(val), true
}

// Generator returns a payload function loading path afresh for every
// scenario, so each scenario starts from the first row.
func Generator(path string, mode Mode) core.PayloadFunc {
	return func(_ context.Context, sc core.Scenario) (any, error) {
		return LoadFile(sc.Name, path, mode)
	}
}

// LoadFile reads a .csv, .json, .yaml or .yml data file.
func LoadFile(name, path string, mode Mode) (*Source, error) {
	var (
		rows []Row
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		rows, err = loadCSV(path)
	case ".json":
		rows, err = loadJSON(path)
	case ".yaml", ".yml":
		rows, err = loadYAML(path)
	default:
		return nil, core.UnsupportedFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("data file %s is empty", path)
	}
	return NewSource(name, rows, mode), nil
}

// loadCSV treats the first record as the header.
func loadCSV(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("CSV needs a header row and at least one data row")
	}

	headers := records[0]
	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(Row, len(headers))
		for i, h := range headers {
			if i < len(rec) {
				row[h] = rec[i]
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func loadJSON(path string) ([]Row, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rows []Row
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil, fmt.Errorf("JSON must be an array of objects: %w", err)
	}
	return rows, nil
}

func loadYAML(path string) ([]Row, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rows []Row
	if err := yaml.Unmarshal(b, &rows); err != nil {
		return nil, fmt.Errorf("YAML must be a list of mappings: %w", err)
	}
	return rows, nil
}
