package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"slices"
)

// Lookup is an insertion-ordered mapping from a key to an ordered list of
// unique values. A key only exists once at least one value was added, so no
// key ever maps to an empty list.
type Lookup struct {
	keys    []string
	entries map[string]*lookupEntry
}

type lookupEntry struct {
	values []string
	seen   map[string]struct{}
}

// NewLookup creates an empty Lookup.
func NewLookup() *Lookup {
	return &Lookup{entries: make(map[string]*lookupEntry)}
}

// Add appends values to key, skipping values already present under that key
// (exact string match). The key is created on first successful add.
// Returns the number of values actually appended.
func (l *Lookup) Add(key string, values ...string) int {
	e, ok := l.entries[key]
	added := 0
	for _, v := range values {
		if !ok {
			e = &lookupEntry{seen: make(map[string]struct{})}
			l.entries[key] = e
			l.keys = append(l.keys, key)
			ok = true
		}
		if _, dup := e.seen[v]; dup {
			continue
		}
		e.seen[v] = struct{}{}
		e.values = append(e.values, v)
		added++
	}
	return added
}

// Has reports whether key is present.
func (l *Lookup) Has(key string) bool {
	_, ok := l.entries[key]
	return ok
}

// Get returns a copy of the values stored under key.
func (l *Lookup) Get(key string) ([]string, bool) {
	e, ok := l.entries[key]
	if !ok {
		return nil, false
	}
	return slices.Clone(e.values), true
}

// Len returns the number of keys.
func (l *Lookup) Len() int { return len(l.keys) }

// Keys returns the keys in insertion order.
func (l *Lookup) Keys() []string { return slices.Clone(l.keys) }

// All iterates over keys and their values in insertion order.
// The yielded slices must not be modified.
func (l *Lookup) All() iter.Seq2[string, []string] {
	return func(yield func(string, []string) bool) {
		for _, k := range l.keys {
			if !yield(k, l.entries[k].values) {
				return
			}
		}
	}
}

// Invert builds the reverse mapping: every (key, value) pair becomes
// (lowercase value, key). Forward iteration order decides the order of both
// reverse keys and reverse values.
func (l *Lookup) Invert() *Lookup {
	rev := NewLookup()
	for key, values := range l.All() {
		for _, v := range values {
			rev.Add(Lower(v), key)
		}
	}
	return rev
}

// MarshalJSON encodes the lookup as a single compact JSON object with keys in
// insertion order. Non-ASCII characters and <, >, & are written literally.
// json.Marshal re-escapes HTML characters in Marshaler output, so writers call
// this method directly.
func (l *Lookup) MarshalJSON() ([]byte, error) {
	var buf, scratch bytes.Buffer
	enc := json.NewEncoder(&scratch)
	enc.SetEscapeHTML(false)

	encode := func(v any) error {
		scratch.Reset()
		if err := enc.Encode(v); err != nil {
			return err
		}
		// Encoder terminates every value with a newline.
		buf.Write(bytes.TrimSuffix(scratch.Bytes(), []byte{'\n'}))
		return nil
	}

	buf.WriteByte('{')
	for i, k := range l.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encode(k); err != nil {
			return nil, fmt.Errorf("encode key %q: %w", k, err)
		}
		buf.WriteByte(':')
		if err := encode(l.entries[k].values); err != nil {
			return nil, fmt.Errorf("encode values of %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object of string arrays, keeping the key order
// of the document. Repeated keys are merged.
func (l *Lookup) UnmarshalJSON(data []byte) error {
	*l = *NewLookup()

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("read object start: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("read key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected string key, got %v", tok)
		}
		var values []string
		if err := dec.Decode(&values); err != nil {
			return fmt.Errorf("decode values of %q: %w", key, err)
		}
		l.Add(key, values...)
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("read object end: %w", err)
	}
	return nil
}
