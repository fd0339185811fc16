// Package roster loads (id, score) entries from roster files.
//
// Supported formats:
//   - .csv: first column is the identifier, second the score; a first row
//     whose score does not parse is treated as a header
//   - .json, .yaml, .yml: a document with an "entries" list of {id, score}
package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/groupbalance/core/model"
)

// ErrEmpty is returned when a roster file holds no entries.
var ErrEmpty = errors.New("roster has no entries")

// Load reads the roster at path, choosing the format from the extension.
func Load(path string) ([]model.Entry, error) {
	var (
		entries []model.Entry
		err     error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		entries, err = loadCSV(path)
	case ".json":
		entries, err = loadDocument(path, json.Parser())
	case ".yaml", ".yml":
		entries, err = loadDocument(path, yaml.Parser())
	default:
		return nil, fmt.Errorf("unsupported roster format: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("roster %s: %w", path, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("roster %s: %w", path, ErrEmpty)
	}
	return entries, nil
}

func loadCSV(path string) ([]model.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ReadCSV(f)
}

// ReadCSV parses id,score rows. Extra columns are ignored.
func ReadCSV(r io.Reader) ([]model.Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	var entries []model.Entry
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) < 2 {
			return nil, fmt.Errorf("line %d: expected id and score, got %d field(s)", line, len(rec))
		}
		id := strings.TrimSpace(rec[0])
		score, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("line %d: score %q: %w", line, rec[1], err)
		}
		e := model.Entry{ID: id, Score: score}
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func loadDocument(path string, parser koanf.Parser) ([]model.Entry, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// A missing score would otherwise decode as 0.
	for i, item := range k.Slices("entries") {
		if !item.Exists("score") {
			return nil, fmt.Errorf("entry %d: score is missing", i)
		}
	}
	var entries []model.Entry
	if err := k.UnmarshalWithConf("entries", &entries, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	for i, e := range entries {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return entries, nil
}
