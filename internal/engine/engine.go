// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine turns a set of simulation output files into one record.
// A conversion classifies the inputs by code, runs that code's extractors
// in registry order against the files resolved for their roles, and merges
// the values into a record. Extractor failures are recovered as warnings;
// only unclassifiable inputs and a missing formula fail a conversion.
package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/WardLT/pif-dft/internal/classify"
	"github.com/WardLT/pif-dft/internal/extract"
	"github.com/WardLT/pif-dft/internal/fileset"
	"github.com/WardLT/pif-dft/internal/metrics"
	"github.com/WardLT/pif-dft/pkg/pif"
	"github.com/WardLT/pif-dft/pkg/types"
)

// MethodName is the method recorded on every extracted property.
const MethodName = "Density Functional Theory"

// DefaultQualityTimeout bounds the annotation call.
const DefaultQualityTimeout = 60 * time.Second

// qualityStep names quality service failures in warnings.
const qualityStep = "quality annotation"

// Annotator adds quality metadata to a finished record. It must not modify
// its argument.
type Annotator interface {
	Annotate(ctx context.Context, rec *pif.Record) (*pif.Record, error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for diagnostics. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithAnnotator sets the quality annotator used when Options.Quality is set.
func WithAnnotator(a Annotator) Option {
	return func(e *Engine) { e.annotator = a }
}

// WithQualityTimeout bounds each annotation call.
func WithQualityTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.qualityTimeout = d
		}
	}
}

// WithMetrics sets the collector that counts conversions.
func WithMetrics(m *metrics.Collector) Option {
	return func(e *Engine) { e.metrics = m }
}

// Engine converts file sets into records. Its fields are fixed at
// construction, so one Engine can serve concurrent conversions.
type Engine struct {
	registry       *extract.Registry
	logger         *slog.Logger
	annotator      Annotator
	qualityTimeout time.Duration
	metrics        *metrics.Collector
}

// New returns an engine over reg. A nil reg selects extract.Default().
func New(reg *extract.Registry, opts ...Option) *Engine {
	if reg == nil {
		reg = extract.Default()
	}
	e := &Engine{
		registry:       reg,
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		qualityTimeout: DefaultQualityTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Options control one conversion.
type Options struct {
	// Quality requests annotation by the quality service.
	Quality bool
}

// Warning is a recovered failure of one extractor or of the quality step.
type Warning struct {
	Extractor string
	Err       error
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %v", w.Extractor, w.Err)
}

// Result is the outcome of a successful conversion.
type Result struct {
	Record *pif.Record
	Family types.CodeFamily

	// Warnings lists recovered extractor and quality failures.
	Warnings []Warning

	// Skipped lists extractors whose input files were not supplied and
	// whose values no other extractor provided, as "name (role)".
	Skipped []string
}

// Partial reports whether the record may be missing values, either because
// an extractor failed or because inputs were absent.
func (r *Result) Partial() bool {
	return len(r.Warnings) > 0 || len(r.Skipped) > 0
}

// Convert converts exactly the given files. Files not listed are never
// read, even when they sit in the same directory. A path that is missing or
// not a regular file fails with fileset.ErrInvalidInput.
func (e *Engine) Convert(ctx context.Context, paths []string, opts Options) (*Result, error) {
	set, err := fileset.New(paths)
	if err != nil {
		e.metrics.Conversion("", metrics.OutcomeFailed)
		return nil, fmt.Errorf("building file set: %w", err)
	}
	return e.ConvertSet(ctx, set, opts)
}

// ConvertDirectory converts the regular files directly inside dir.
func (e *Engine) ConvertDirectory(ctx context.Context, dir string, opts Options) (*Result, error) {
	set, err := fileset.FromDirectory(dir)
	if err != nil {
		e.metrics.Conversion("", metrics.OutcomeFailed)
		return nil, err
	}
	return e.ConvertSet(ctx, set, opts)
}

// ConvertSet converts the files of set.
func (e *Engine) ConvertSet(ctx context.Context, set *fileset.Set, opts Options) (*Result, error) {
	family, err := classify.Classify(set, e.registry.Markers())
	if err != nil {
		e.metrics.Conversion("", metrics.OutcomeFailed)
		return nil, err
	}
	log := e.logger.With("family", family.String())
	log.Debug("classified inputs", "files", set.Len())

	acc := newAccumulator()
	res := &Result{Family: family}
	skipped := make(map[string][]string)

	for _, d := range e.registry.For(family) {
		if err := ctx.Err(); err != nil {
			e.metrics.Conversion(family.String(), metrics.OutcomeFailed)
			return nil, err
		}
		key := d.Key()
		if acc.filled(key) {
			log.Debug("value already set", "extractor", d.Name, "key", key)
			continue
		}

		files, missing := resolve(set, d.Roles)
		if missing != "" {
			log.Debug("role unresolved, skipping", "extractor", d.Name, "role", missing)
			skipped[key] = append(skipped[key], fmt.Sprintf("%s (%s)", d.Name, missing))
			continue
		}

		p, err := runExtractor(d, extract.NewInputs(set, files))
		if err != nil {
			log.Warn("extractor failed", "extractor", d.Name, "error", err)
			e.metrics.ExtractorFailure(family.String(), d.Name)
			res.Warnings = append(res.Warnings, Warning{Extractor: d.Name, Err: err})
			continue
		}
		if p.Empty() {
			log.Debug("extractor found no value", "extractor", d.Name)
			continue
		}
		acc.add(d, p)
	}

	if acc.formula == "" {
		e.metrics.Conversion(family.String(), metrics.OutcomeFailed)
		return nil, fmt.Errorf("%w: no chemical formula found in %s inputs", ErrIncompleteExtraction, family)
	}

	for key, names := range skipped {
		if !acc.filled(key) {
			res.Skipped = append(res.Skipped, names...)
		}
	}
	sort.Strings(res.Skipped)

	rec := acc.record(family)
	if err := rec.AssignUID(); err != nil {
		return nil, err
	}
	res.Record = rec

	if opts.Quality {
		e.annotate(ctx, res, log)
	}

	outcome := metrics.OutcomeComplete
	if res.Partial() {
		outcome = metrics.OutcomePartial
	}
	e.metrics.Conversion(family.String(), outcome)
	return res, nil
}

// annotate makes the single quality call of a conversion. Failures leave
// the record as it was and add a warning.
func (e *Engine) annotate(ctx context.Context, res *Result, log *slog.Logger) {
	if e.annotator == nil {
		res.Warnings = append(res.Warnings, Warning{Extractor: qualityStep, Err: ErrNoAnnotator})
		return
	}

	ctx, cancel := context.WithTimeout(ctx, e.qualityTimeout)
	defer cancel()

	annotated, err := e.annotator.Annotate(ctx, res.Record)
	if err == nil && annotated == nil {
		err = fmt.Errorf("annotator returned no record")
	}
	if err == nil {
		err = annotated.AssignUID()
	}
	e.metrics.QualityRequest(err)
	if err != nil {
		log.Warn("quality annotation failed", "error", err)
		res.Warnings = append(res.Warnings, Warning{Extractor: qualityStep, Err: err})
		return
	}
	res.Record = annotated
}

// resolve picks one file per role. It returns the name of the first role
// with no candidate, if any.
func resolve(set *fileset.Set, roles []fileset.Role) (map[string]string, string) {
	files := make(map[string]string, len(roles))
	for _, r := range roles {
		path, ok := fileset.Resolve(set, r)
		if !ok {
			return nil, r.Name
		}
		files[r.Name] = path
	}
	return files, ""
}

// runExtractor calls d.Extract, turning a panic into an error so one broken
// extractor cannot take down a conversion.
func runExtractor(d extract.Descriptor, in extract.Inputs) (p *extract.Partial, err error) {
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, fmt.Errorf("extractor panicked: %v", r)
		}
	}()
	return d.Extract(in)
}
