// Package jsonfile reads and writes lookup tables as compact JSON files:
// one top-level object, keys in insertion order, string arrays as values,
// no insignificant whitespace, non-ASCII text written literally.
package jsonfile

import (
	"fmt"
	"os"

	"github.com/heartmarshall/freedict-lookup/internal/domain"
)

// Write serializes l to path, replacing any existing file, and returns the
// size of the written file in bytes.
func Write(path string, l *domain.Lookup) (int64, error) {
	data, err := l.MarshalJSON()
	if err != nil {
		return 0, fmt.Errorf("encode %s: %w", path, err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, fmt.Errorf("write %s: %w", path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.Size(), nil
}

// Read loads a lookup table written by Write, preserving key order.
func Read(path string) (*domain.Lookup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	l := domain.NewLookup()
	if err := l.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return l, nil
}
