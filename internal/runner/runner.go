package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Walter66888/taifex-linebot-aggregator/internal/model"
	"github.com/Walter66888/taifex-linebot-aggregator/internal/normalize"
	"github.com/Walter66888/taifex-linebot-aggregator/internal/store"
	"github.com/Walter66888/taifex-linebot-aggregator/internal/taifex"
)

// Status is the tri-state crawl outcome the external scheduler keys on:
// success, already current, or "nothing published yet, try again later".
// Hard failures travel as errors, never as a Status.
type Status int

const (
	// StatusUpdated means fresh content was written (inserted or replaced).
	StatusUpdated Status = iota
	// StatusAlreadyCurrent means the store already held identical content.
	StatusAlreadyCurrent
	// StatusPending means the exchange hasn't published the date yet.
	StatusPending
)

// String returns the status's log-friendly name.
func (s Status) String() string {
	switch s {
	case StatusUpdated:
		return "updated"
	case StatusAlreadyCurrent:
		return "already_current"
	case StatusPending:
		return "pending"
	}
	return "unknown"
}

// Result is the outcome of one crawl invocation for one date.
type Result struct {
	Status Status
	Record model.CanonicalRecord
	Reason string
}

// DateResult pairs a backfill date with its outcome or error.
type DateResult struct {
	Date   time.Time
	Result Result
	Err    error
}

// Runner orchestrates fetch, normalize and upsert for one dataset.
type Runner struct {
	fetcher taifex.Fetcher
	store   store.Store
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a Runner. logger may be nil (slog default is used); now may
// be nil (system clock).
func New(fetcher taifex.Fetcher, st store.Store, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		fetcher: fetcher,
		store:   st,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock overrides the timestamp source. Tests use it to pin fetched_at.
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

// Run crawls one trading date: fetch, normalize, upsert.
//
// A transient fetch error or a validation failure is returned as an error:
// fatal for this invocation, retried only by the scheduler's next run. A
// not-yet-published date is StatusPending, which callers must treat as a
// non-failure. With force, an unchanged document is rewritten anyway so
// fetched_at reflects this run.
func (r *Runner) Run(ctx context.Context, date time.Time, force bool) (Result, error) {
	outcome := r.fetcher.Fetch(ctx, date)
	switch outcome.Kind {
	case taifex.OutcomeTransientError:
		return Result{}, outcome.Err
	case taifex.OutcomeNotYetPublished:
		return Result{Status: StatusPending, Reason: "not published yet"}, nil
	}

	rec, err := normalize.Normalize(r.fetcher.Dataset(), date, outcome.Raw)
	if err != nil {
		return Result{}, err
	}
	rec.FetchedAt = r.now().UTC()

	upserted, err := r.store.Upsert(ctx, rec, force)
	if err != nil {
		return Result{}, err
	}

	if upserted == store.ResultUnchanged {
		return Result{Status: StatusAlreadyCurrent, Record: rec}, nil
	}
	return Result{Status: StatusUpdated, Record: rec}, nil
}

// Backfill runs the inclusive date range sequentially. One date's failure
// does not abort the remaining dates; successful dates stay stored. The
// returned error is non-nil if any date failed.
func (r *Runner) Backfill(ctx context.Context, start, end time.Time, force bool) ([]DateResult, error) {
	start, end = model.DateOf(start), model.DateOf(end)
	if end.Before(start) {
		return nil, fmt.Errorf("backfill range is inverted: %s after %s",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	var results []DateResult
	var failures []error
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			failures = append(failures, err)
			break
		}

		res, err := r.Run(ctx, d, force)
		results = append(results, DateResult{Date: d, Result: res, Err: err})
		if err != nil {
			r.logger.Warn("backfill date failed",
				"dataset", r.fetcher.Dataset(),
				"date", d.Format("2006-01-02"),
				"error", err)
			failures = append(failures, fmt.Errorf("%s: %w", d.Format("2006-01-02"), err))
			continue
		}
		r.logger.Info("backfill date done",
			"dataset", r.fetcher.Dataset(),
			"date", d.Format("2006-01-02"),
			"status", res.Status)
	}

	if len(failures) > 0 {
		return results, errors.Join(failures...)
	}
	return results, nil
}
