package domain

import "time"

// DictionaryInfo describes one lookup table stored in a database sink.
type DictionaryInfo struct {
	Name        string
	Source      string
	Headwords   int
	GeneratedAt time.Time
}
