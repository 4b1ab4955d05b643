// Package compliance knows which e-mail clients honor which CSS properties
// and estimates how well a set of used properties is supported.
package compliance

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

//go:embed css_compliance.csv
var defaultTable []byte

// single letter cells used by older tables
var cellLetters = map[string]SupportLevel{
	"y": SupportLevelFull,
	"p": SupportLevelPartial,
	"n": SupportLevelNone,
}

// ParseCell accepts full, partial and none in any case as well as single
// letter Y, P and N cells.
func ParseCell(s string) (SupportLevel, error) {
	s = strings.TrimSpace(s)
	if level, ok := cellLetters[strings.ToLower(s)]; ok {
		return level, nil
	}
	return ParseSupportLevel(s)
}

// ClientSupport is a single table cell.
type ClientSupport struct {
	Client string
	Level  SupportLevel
}

// DataLoadError is returned when compliance table cannot be loaded.
type DataLoadError struct {
	Source string
	Err    error
}

func (e *DataLoadError) Error() string {
	return fmt.Sprintf("unable to load compliance table from %s: %v", e.Source, e.Err)
}

func (e *DataLoadError) Unwrap() error {
	return e.Err
}

// Table maps CSS property names to per client support levels. Table is
// read-only after loading and could be shared.
type Table struct {
	clients    []string
	properties []string
	support    map[string][]ClientSupport
}

// Load reads compliance table in CSV form: header row with "property"
// followed by client names, then one row per property.
func Load(r io.Reader, source string) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, &DataLoadError{Source: source, Err: err}
	}
	if len(records) == 0 {
		return nil, &DataLoadError{Source: source, Err: errors.New("table is empty")}
	}

	header := records[0]
	if len(header) < 2 {
		return nil, &DataLoadError{Source: source, Err: errors.New("table has no client columns")}
	}

	t := &Table{
		clients: make([]string, 0, len(header)-1),
		support: make(map[string][]ClientSupport, len(records)-1),
	}
	for _, c := range header[1:] {
		t.clients = append(t.clients, strings.TrimSpace(c))
	}

	for i, rec := range records[1:] {
		line := i + 2
		prop := strings.ToLower(strings.TrimSpace(rec[0]))
		if prop == "" {
			return nil, &DataLoadError{Source: source, Err: fmt.Errorf("line %d: empty property name", line)}
		}
		if _, exists := t.support[prop]; exists {
			return nil, &DataLoadError{Source: source, Err: fmt.Errorf("line %d: duplicate property %q", line, prop)}
		}
		cells := make([]ClientSupport, 0, len(t.clients))
		for j, cell := range rec[1:] {
			level, err := ParseCell(cell)
			if err != nil {
				return nil, &DataLoadError{Source: source, Err: fmt.Errorf("line %d, client %q: %w", line, t.clients[j], err)}
			}
			cells = append(cells, ClientSupport{Client: t.clients[j], Level: level})
		}
		t.support[prop] = cells
		t.properties = append(t.properties, prop)
	}
	return t, nil
}

// LoadFile loads compliance table from file.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &DataLoadError{Source: path, Err: err}
	}
	return Load(bytes.NewReader(data), path)
}

var (
	defaultOnce sync.Once
	defaultTbl  *Table
	defaultErr  error
)

// Default returns built-in compliance table. It is parsed once per process.
func Default() (*Table, error) {
	defaultOnce.Do(func() {
		defaultTbl, defaultErr = Load(bytes.NewReader(defaultTable), "built-in table")
	})
	return defaultTbl, defaultErr
}

// Lookup returns per client support for property in table column order.
func (t *Table) Lookup(property string) ([]ClientSupport, bool) {
	cells, ok := t.support[strings.ToLower(property)]
	return cells, ok
}

// Clients returns client names in table column order.
func (t *Table) Clients() []string {
	return t.clients
}

// ClientCount is the size of client population used for scoring.
func (t *Table) ClientCount() int {
	return len(t.clients)
}

// Properties returns known properties in table order.
func (t *Table) Properties() []string {
	return t.properties
}
