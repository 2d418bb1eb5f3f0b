// Package pipeline drives a tap run: for every selected stream it walks the
// days from the resume point up to today, fetches each day, cleans the
// payload and hands the records to the destination before moving the
// stream's bookmark.
//
// # Overview
//
// The engine is deliberately sequential:
//   - Streams run one after another in catalog order
//   - Days run in ascending order, never concurrently
//   - A day is committed (bookmark, state save, STATE message) only after
//     the destination accepted every record of that day
//
// # Basic Usage
//
//	engine, err := pipeline.NewEngine(fetcher, dest, store, &pipeline.EngineConfig{
//	    Catalog:   catalog,
//	    Streams:   catalog.Streams(),
//	    StartDate: daterange.MustParseDay("2021-01-01"),
//	    Retry:     base.NewRetryPolicyFromConfig(cfg.Reliability),
//	}, logger)
//	if err != nil {
//	    return err
//	}
//	summary, err := engine.Run(ctx)
package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/tap-postmark/pkg/cleaners"
	"github.com/ajitpratap0/tap-postmark/pkg/connector/base"
	"github.com/ajitpratap0/tap-postmark/pkg/connector/core"
	"github.com/ajitpratap0/tap-postmark/pkg/daterange"
	"github.com/ajitpratap0/tap-postmark/pkg/errors"
	"github.com/ajitpratap0/tap-postmark/pkg/logger"
	"github.com/ajitpratap0/tap-postmark/pkg/metrics"
	"github.com/ajitpratap0/tap-postmark/pkg/observability"
	"github.com/ajitpratap0/tap-postmark/pkg/schema"
)

// EngineConfig holds what a run needs besides its collaborators.
type EngineConfig struct {
	// Catalog renders SCHEMA messages
	Catalog *schema.Catalog
	// Streams to extract, in the order they run
	Streams []*schema.StreamSchema
	// StartDate is the first day when a stream has no bookmark
	StartDate daterange.Day
	// FailFast stops the run at the first failing stream
	FailFast bool
	// Retry governs whole-day refetches of retryable errors. Nil means a
	// single attempt.
	Retry *base.RetryPolicy
	// Clock defaults to time.Now
	Clock func() time.Time
	// Observer, when set, sees every phase transition
	Observer func(stream string, phase Phase, day daterange.Day)
}

// Engine extracts streams day by day.
type Engine struct {
	fetcher core.Fetcher     // Remote API
	dest    core.Destination // Receives SCHEMA, RECORD and STATE
	store   core.StateStore  // Bookmark persistence

	catalog  *schema.Catalog
	streams  []*schema.StreamSchema
	start    daterange.Day
	failFast bool
	retry    *base.RetryPolicy
	clock    func() time.Time
	observer func(string, Phase, daterange.Day)

	logger *zap.Logger
}

// NewEngine validates cfg and returns an engine. Every stream must have a
// cleaner.
func NewEngine(fetcher core.Fetcher, dest core.Destination, store core.StateStore, cfg *EngineConfig, logger *zap.Logger) (*Engine, error) {
	if fetcher == nil || dest == nil || store == nil {
		return nil, errors.New(errors.ErrorTypeConfig, "engine needs a fetcher, a destination and a state store")
	}
	if cfg == nil || cfg.Catalog == nil {
		return nil, errors.New(errors.ErrorTypeConfig, "engine needs a catalog")
	}
	if cfg.StartDate.IsZero() {
		return nil, errors.New(errors.ErrorTypeConfig, "start date is required")
	}
	for _, s := range cfg.Streams {
		if _, ok := cleaners.Lookup(s.Name); !ok {
			return nil, errors.Newf(errors.ErrorTypeConfig, "no cleaner for stream %q", s.Name)
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	retry := cfg.Retry
	if retry == nil {
		retry = base.NoRetryPolicy()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Engine{
		fetcher:  fetcher,
		dest:     dest,
		store:    store,
		catalog:  cfg.Catalog,
		streams:  cfg.Streams,
		start:    cfg.StartDate,
		failFast: cfg.FailFast,
		retry:    retry,
		clock:    clock,
		observer: cfg.Observer,
		logger:   logger.With(zap.String("component", "engine")),
	}, nil
}

// Run extracts every configured stream. The returned summary is never nil;
// the error joins every stream failure, or holds only the first one with
// FailFast.
func (e *Engine) Run(ctx context.Context) (*Summary, error) {
	summary := newSummary(e.clock())
	defer func() { summary.Duration = e.clock().Sub(summary.StartedAt) }()

	st, err := e.store.Load(ctx)
	if err != nil {
		return summary, err
	}

	var errs []error
	for _, s := range e.streams {
		if err := ctx.Err(); err != nil {
			errs = append(errs, errors.Wrap(err, errors.ErrorTypeTimeout, "run cancelled"))
			break
		}

		res := e.runStream(ctx, st, s)
		summary.add(res)
		if res.Err == nil {
			continue
		}

		metrics.StreamErrors.WithLabelValues(s.Name, errorType(res.Err)).Inc()
		errs = append(errs, res.Err)
		if e.failFast {
			break
		}
	}

	e.logger.Info("run finished",
		zap.Int("streams", len(summary.Streams)),
		zap.Int64("records", summary.Records()),
		zap.Int("failed", len(errs)))
	return summary, stderrors.Join(errs...)
}

// resumeDay is the later of the start date and the day after the bookmark.
func (e *Engine) resumeDay(st *core.State, stream string) daterange.Day {
	if bm, ok := st.Bookmark(stream); ok {
		return daterange.Later(e.start, bm.Next())
	}
	return e.start
}

func (e *Engine) runStream(ctx context.Context, st *core.State, s *schema.StreamSchema) StreamResult {
	ctx = logger.ContextWith(ctx, logger.StreamKey, s.Name)
	log := logger.FromContext(ctx, e.logger)
	res := StreamResult{Stream: s.Name}

	clean, _ := cleaners.Lookup(s.Name)
	from := e.resumeDay(st, s.Name)
	log.Info("starting stream", zap.Stringer("from", from))

	if err := e.dest.WriteSchema(ctx, s, e.catalog.JSONSchema(s)); err != nil {
		res.Err = e.fail(s.Name, from, PhaseIdle, err)
		e.notify(s.Name, PhaseFailed, from)
		return res
	}

	for day := range daterange.Days(from, e.clock()) {
		if err := ctx.Err(); err != nil {
			res.Err = e.fail(s.Name, day, PhaseIdle, errors.Wrap(err, errors.ErrorTypeTimeout, "cancelled"))
			e.notify(s.Name, PhaseFailed, day)
			return res
		}

		n, err := e.runDay(ctx, st, s, clean, day)
		if err != nil {
			res.Err = err
			e.notify(s.Name, PhaseFailed, day)
			return res
		}
		res.Days++
		res.Records += int64(n)
		res.Bookmark = day.String()
	}

	e.notify(s.Name, PhaseExhausted, daterange.Day{})
	log.Info("stream exhausted", zap.Int("days", res.Days), zap.Int64("records", res.Records))
	return res
}

// runDay fetches, cleans and emits one day, then commits its bookmark.
func (e *Engine) runDay(ctx context.Context, st *core.State, s *schema.StreamSchema, clean cleaners.Cleaner, day daterange.Day) (n int, err error) {
	ctx = logger.ContextWith(ctx, logger.DayKey, day.String())
	ctx, span := observability.StartSpan(ctx, "extract_day", "stream", s.Name, "day", day.String())
	defer func() { observability.EndSpan(span, err) }()
	log := logger.FromContext(ctx, e.logger)

	e.notify(s.Name, PhaseFetching, day)
	payload, err := e.fetch(ctx, s.Name, day, log)
	if err != nil {
		return 0, e.fail(s.Name, day, PhaseFetching, err)
	}

	e.notify(s.Name, PhaseCleaning, day)
	records, err := clean(cleaners.Context{Day: day, Now: e.clock(), Schema: s, Logger: log}, payload)
	if err != nil {
		return 0, e.fail(s.Name, day, PhaseCleaning, err)
	}

	if err := e.dest.WriteRecords(ctx, s.Name, records); err != nil {
		return 0, e.fail(s.Name, day, PhaseCleaning, err)
	}
	metrics.RecordsEmitted.WithLabelValues(s.Name).Add(float64(len(records)))

	st.SetBookmark(s.Name, day)
	if err := e.store.Save(ctx, st); err != nil {
		return len(records), e.fail(s.Name, day, PhaseEmitted, err)
	}
	if err := e.dest.WriteState(ctx, st.Clone()); err != nil {
		return len(records), e.fail(s.Name, day, PhaseEmitted, err)
	}
	e.notify(s.Name, PhaseEmitted, day)

	metrics.DaysCompleted.WithLabelValues(s.Name).Inc()
	metrics.Bookmark.WithLabelValues(s.Name).Set(float64(day.Time().Unix()))
	log.Debug("day committed", zap.Int("records", len(records)))
	return len(records), nil
}

// fetch refetches the whole day on retryable errors. Nothing has been
// emitted for the day yet, so a retry cannot duplicate records.
func (e *Engine) fetch(ctx context.Context, stream string, day daterange.Day, log *zap.Logger) (schema.RawRecord, error) {
	policy := *e.retry
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		metrics.FetchRetries.WithLabelValues(stream).Inc()
		log.Warn("retrying day fetch",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))
	}

	var payload schema.RawRecord
	err := policy.ExecuteWithCondition(ctx, func() error {
		var ferr error
		payload, ferr = e.fetcher.Fetch(ctx, stream, day)
		return ferr
	}, errors.IsRetryable)
	return payload, err
}

// fail names the stream, day and phase in front of err. The wrapped
// error keeps err's type so callers can still classify it.
func (e *Engine) fail(stream string, day daterange.Day, phase Phase, err error) error {
	wrapped := errors.Wrap(err, typeOf(err), fmt.Sprintf("stream %s failed on %s while %s", stream, day, phase.verb()))
	wrapped.WithDetail(errors.DetailStream, stream).WithDetail(errors.DetailDay, day.String())
	e.logger.Error("stream aborted",
		zap.String("stream", stream),
		zap.Stringer("day", day),
		zap.Stringer("phase", phase),
		zap.Error(err))
	return wrapped
}

func (e *Engine) notify(stream string, phase Phase, day daterange.Day) {
	if e.observer != nil {
		e.observer(stream, phase, day)
	}
}

// typeOf is the type of the outermost structured error in err's chain.
func typeOf(err error) errors.ErrorType {
	var se *errors.Error
	if stderrors.As(err, &se) {
		return se.Type
	}
	return errors.ErrorTypeInternal
}

func errorType(err error) string {
	return string(typeOf(err))
}
