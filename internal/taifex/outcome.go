package taifex

import (
	"context"
	"time"

	"github.com/Walter66888/taifex-linebot-aggregator/internal/model"
)

// Fetcher is the core interface both dataset crawlers implement.
// Each fetcher knows how to retrieve one trading day's raw row from its
// TAIFEX table, and reports "not published yet" distinctly from failure
// so the caller can poll through the publication window without alerting.
type Fetcher interface {
	// Dataset identifies which table this fetcher pulls.
	Dataset() model.Dataset

	// Fetch retrieves the raw row for the given trading date.
	// Non-trading days and future dates short-circuit to NotYetPublished
	// without touching the network.
	Fetch(ctx context.Context, tradingDate time.Time) FetchOutcome
}

// OutcomeKind tags the three possible results of a fetch.
type OutcomeKind int

const (
	// OutcomeAvailable means the table held a row for the requested date.
	OutcomeAvailable OutcomeKind = iota
	// OutcomeNotYetPublished means the exchange has not (or will not)
	// publish data for the date. Expected pre-publication; not an error.
	OutcomeNotYetPublished
	// OutcomeTransientError means the request or parse failed abnormally.
	OutcomeTransientError
)

// String returns the kind's wire-friendly name.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeAvailable:
		return "available"
	case OutcomeNotYetPublished:
		return "not_yet_published"
	case OutcomeTransientError:
		return "transient_error"
	}
	return "unknown"
}

// FetchOutcome is the tagged result of one fetch. Raw is set only for
// OutcomeAvailable, Err only for OutcomeTransientError. Never persisted.
type FetchOutcome struct {
	Kind OutcomeKind
	Raw  model.RawPayload
	Err  error
}

// Available wraps a successfully extracted raw row.
func Available(raw model.RawPayload) FetchOutcome {
	return FetchOutcome{Kind: OutcomeAvailable, Raw: raw}
}

// NotYetPublished signals the expected "no data for this date yet" state.
func NotYetPublished() FetchOutcome {
	return FetchOutcome{Kind: OutcomeNotYetPublished}
}

// TransientError wraps an abnormal network or parse failure.
func TransientError(err error) FetchOutcome {
	return FetchOutcome{Kind: OutcomeTransientError, Err: err}
}
