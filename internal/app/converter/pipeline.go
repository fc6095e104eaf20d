package converter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/heartmarshall/freedict-lookup/internal/adapter/jsonfile"
	"github.com/heartmarshall/freedict-lookup/internal/app/converter/tei"
	"github.com/heartmarshall/freedict-lookup/internal/config"
	"github.com/heartmarshall/freedict-lookup/internal/domain"
	"github.com/heartmarshall/freedict-lookup/pkg/ctxutil"
)

// Status is the outcome of a single pair.
type Status string

const (
	StatusConverted Status = "converted"
	StatusParsed    Status = "parsed" // dry run: parsed, nothing written
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// PairResult holds the outcome of a single pair.
type PairResult struct {
	Status           Status
	Source           string
	Output           string
	Reverse          string
	Headwords        int
	ReverseHeadwords int
	Bytes            int64
	ReverseBytes     int64
	Stats            tei.Stats
	Duration         time.Duration
	Err              error
}

// Options holds optional pipeline collaborators.
type Options struct {
	// Sinks receive the forward and reverse tables of every converted pair.
	Sinks []Sink
	// Version is recorded in the run manifest.
	Version string
}

// Pipeline converts the configured pairs one after another.
type Pipeline struct {
	log     *slog.Logger
	cfg     *config.Config
	report  *Reporter
	opts    Options
	results map[string]PairResult
	order   []string
	runID   string
	started time.Time
}

// NewPipeline creates a new Pipeline.
func NewPipeline(log *slog.Logger, cfg *config.Config, report *Reporter, opts Options) *Pipeline {
	return &Pipeline{
		log:     log,
		cfg:     cfg,
		report:  report,
		opts:    opts,
		results: make(map[string]PairResult),
	}
}

// Results returns pair results keyed by forward output name after Run.
func (p *Pipeline) Results() map[string]PairResult {
	return p.results
}

// Skipped returns the number of pairs whose source was missing.
func (p *Pipeline) Skipped() int {
	n := 0
	for _, r := range p.results {
		if r.Status == StatusSkipped {
			n++
		}
	}
	return n
}

// Run converts the configured pairs in order. If only is non-empty, only
// the pairs whose forward output name is listed run.
//
// A missing source is reported and skipped. Parse and write failures stop
// the run; outputs of earlier pairs stay on disk.
func (p *Pipeline) Run(ctx context.Context, only []string) error {
	toRun, err := selectPairs(p.cfg.Pairs, only)
	if err != nil {
		return err
	}

	p.runID = ctxutil.RunIDFromCtx(ctx)
	if p.runID == "" {
		p.runID = NewRunID()
		ctx = ctxutil.WithRunID(ctx, p.runID)
	}
	p.started = time.Now()
	log := p.log.With(slog.String("run_id", p.runID))

	for _, pair := range toRun {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("convert: %w", err)
		}

		start := time.Now()
		log.Info("pair started", slog.String("pair", pair.Output))

		result, err := p.runPair(ctx, pair)
		result.Duration = time.Since(start)
		result.Err = err
		p.record(pair.Output, result)

		switch {
		case errors.Is(err, domain.ErrSourceMissing):
			log.Warn("pair skipped",
				slog.String("pair", pair.Output),
				slog.String("source", result.Source),
			)
		case err != nil:
			log.Error("pair failed",
				slog.String("pair", pair.Output),
				slog.String("error", err.Error()),
				slog.Duration("duration", result.Duration),
			)
			return fmt.Errorf("pair %s: %w", pair.Output, err)
		default:
			log.Info("pair completed",
				slog.String("pair", pair.Output),
				slog.String("status", string(result.Status)),
				slog.Int("entries", result.Stats.Entries),
				slog.Int("headwords", result.Headwords),
				slog.Int("merged", result.Stats.Merged),
				slog.Int("reverse_headwords", result.ReverseHeadwords),
				slog.Int64("bytes", result.Bytes),
				slog.Int64("reverse_bytes", result.ReverseBytes),
				slog.Duration("duration", result.Duration),
			)
		}
	}

	if p.cfg.ManifestPath != "" {
		if err := WriteManifest(p.cfg.ManifestPath, p.Manifest(time.Now())); err != nil {
			return err
		}
		log.Info("manifest written", slog.String("path", p.cfg.ManifestPath))
	}

	p.report.Done()
	log.Info("pipeline completed",
		slog.Int("pairs_run", len(toRun)),
		slog.Int("skipped", p.Skipped()),
		slog.Duration("duration", time.Since(p.started)),
	)
	return nil
}

func (p *Pipeline) record(output string, r PairResult) {
	if _, ok := p.results[output]; !ok {
		p.order = append(p.order, output)
	}
	p.results[output] = r
}

// runPair converts one pair: extract, write forward, invert, write
// reverse, then hand both tables to the sinks.
func (p *Pipeline) runPair(ctx context.Context, pair domain.Pair) (PairResult, error) {
	src := p.cfg.SourcePath(pair)
	result := PairResult{
		Source:  src,
		Output:  pair.Output,
		Reverse: pair.ReverseName(),
	}

	// Any stat failure counts as a missing source, like an existence check.
	if _, err := os.Stat(src); err != nil {
		p.report.Skip(pair.Source)
		result.Status = StatusSkipped
		return result, fmt.Errorf("%s: %w", src, domain.ErrSourceMissing)
	}

	p.report.Parsing(pair.Source)
	forward, stats, err := tei.Parse(src)
	if err != nil {
		result.Status = StatusFailed
		return result, fmt.Errorf("parse %s: %w", src, err)
	}
	result.Stats = stats
	result.Headwords = forward.Len()
	p.report.Headwords(forward.Len())

	reverse := forward.Invert()
	result.ReverseHeadwords = reverse.Len()

	if p.cfg.DryRun {
		p.report.DryRun(reverse.Len())
		result.Status = StatusParsed
		return result, nil
	}

	size, err := jsonfile.Write(p.cfg.OutputPath(pair.Output), forward)
	if err != nil {
		result.Status = StatusFailed
		return result, fmt.Errorf("write forward: %w", err)
	}
	result.Bytes = size
	p.report.Saved(pair.Output, size)

	size, err = jsonfile.Write(p.cfg.OutputPath(result.Reverse), reverse)
	if err != nil {
		result.Status = StatusFailed
		return result, fmt.Errorf("write reverse: %w", err)
	}
	result.ReverseBytes = size
	p.report.Reverse(reverse.Len(), result.Reverse, size)

	for _, sink := range p.opts.Sinks {
		if err := sink.Save(ctx, pair.Dictionary(), src, forward); err != nil {
			result.Status = StatusFailed
			return result, fmt.Errorf("save %s: %w", pair.Dictionary(), err)
		}
		if err := sink.Save(ctx, pair.ReverseDictionary(), src, reverse); err != nil {
			result.Status = StatusFailed
			return result, fmt.Errorf("save %s: %w", pair.ReverseDictionary(), err)
		}
	}

	result.Status = StatusConverted
	return result, nil
}

// selectPairs keeps configured order. Unknown names in only are an error.
func selectPairs(pairs []domain.Pair, only []string) ([]domain.Pair, error) {
	if len(only) == 0 {
		return pairs, nil
	}

	filter := make(map[string]bool, len(only))
	for _, name := range only {
		filter[name] = true
	}

	var selected []domain.Pair
	for _, pair := range pairs {
		if filter[pair.Output] {
			selected = append(selected, pair)
			delete(filter, pair.Output)
		}
	}
	for _, name := range only {
		if filter[name] {
			return nil, domain.NewValidationError("pairs", fmt.Sprintf("unknown pair %q", name))
		}
	}
	return selected, nil
}
