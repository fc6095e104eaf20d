package converter

import (
	"crypto/rand"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"gopkg.in/yaml.v3"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewRunID returns a lexicographically sortable run identifier.
func NewRunID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Now(), entropy).String()
}

// Manifest records what a conversion run produced.
type Manifest struct {
	RunID      string         `yaml:"run_id"`
	Version    string         `yaml:"version,omitempty"`
	StartedAt  time.Time      `yaml:"started_at"`
	FinishedAt time.Time      `yaml:"finished_at"`
	DryRun     bool           `yaml:"dry_run,omitempty"`
	Pairs      []ManifestPair `yaml:"pairs"`
}

// ManifestPair is the manifest record of one pair.
type ManifestPair struct {
	Output           string `yaml:"output"`
	Source           string `yaml:"source"`
	Status           Status `yaml:"status"`
	Reverse          string `yaml:"reverse,omitempty"`
	Headwords        int    `yaml:"headwords,omitempty"`
	ReverseHeadwords int    `yaml:"reverse_headwords,omitempty"`
	Bytes            int64  `yaml:"bytes,omitempty"`
	ReverseBytes     int64  `yaml:"reverse_bytes,omitempty"`
	Duration         string `yaml:"duration"`
}

// Manifest builds the manifest of the last Run, pairs in execution order.
func (p *Pipeline) Manifest(finished time.Time) Manifest {
	m := Manifest{
		RunID:      p.runID,
		Version:    p.opts.Version,
		StartedAt:  p.started.UTC(),
		FinishedAt: finished.UTC(),
		DryRun:     p.cfg.DryRun,
		Pairs:      make([]ManifestPair, 0, len(p.order)),
	}
	for _, output := range p.order {
		r := p.results[output]
		rec := ManifestPair{
			Output:           r.Output,
			Source:           r.Source,
			Status:           r.Status,
			Headwords:        r.Headwords,
			ReverseHeadwords: r.ReverseHeadwords,
			Bytes:            r.Bytes,
			ReverseBytes:     r.ReverseBytes,
			Duration:         r.Duration.Round(time.Millisecond).String(),
		}
		if r.Status == StatusConverted {
			rec.Reverse = r.Reverse
		}
		m.Pairs = append(m.Pairs, rec)
	}
	return m
}

// WriteManifest writes m as YAML to path, replacing any existing file.
func WriteManifest(path string, m Manifest) error {
	buf, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("write manifest %s: %w", path, err)
	}
	return nil
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (Manifest, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(buf, &m); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest %s: %w", path, err)
	}
	return m, nil
}
