// Package universe manages the tradable symbol list and its
// reference index.
package universe

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// File is the on-disk universe format.
type File struct {
	Description string   `json:"description,omitempty"`
	Updated     string   `json:"updated,omitempty"`
	Symbols     []string `json:"symbols"`
}

// Universe is the loaded stock list plus the reference index symbol.
// Symbols never contains the index; fetching code that needs both
// uses All.
type Universe struct {
	Symbols     []string
	IndexSymbol string
}

// Load reads the universe JSON. Symbols are normalized to upper case,
// deduplicated preserving first occurrence, and the reference index
// is lifted out of the stock list if present.
func Load(path, indexSymbol string) (*Universe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read universe file: %w", err)
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse universe file: %w", err)
	}
	if len(file.Symbols) == 0 {
		return nil, fmt.Errorf("universe file %s has no symbols", path)
	}

	return New(file.Symbols, indexSymbol), nil
}

// New builds a universe from a raw symbol list.
func New(symbols []string, indexSymbol string) *Universe {
	indexSymbol = normalize(indexSymbol)

	seen := make(map[string]bool, len(symbols))
	clean := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = normalize(s)
		if s == "" || s == indexSymbol || seen[s] {
			continue
		}
		seen[s] = true
		clean = append(clean, s)
	}

	return &Universe{Symbols: clean, IndexSymbol: indexSymbol}
}

// All returns the stock symbols plus the reference index, for code
// that fetches or loads data for everything.
func (u *Universe) All() []string {
	all := make([]string, 0, len(u.Symbols)+1)
	all = append(all, u.Symbols...)
	if u.IndexSymbol != "" {
		all = append(all, u.IndexSymbol)
	}
	return all
}

// Save writes the universe JSON with today's date stamped.
func Save(path, description string, symbols []string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create universe dir: %w", err)
		}
	}

	file := File{
		Description: description,
		Updated:     time.Now().UTC().Format("2006-01-02"),
		Symbols:     symbols,
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write universe file: %w", err)
	}
	return nil
}

func normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
