package store

import (
	"context"
	"time"

	"github.com/Walter66888/taifex-linebot-aggregator/internal/model"
)

// UpsertResult reports what an upsert did to the stored document.
type UpsertResult int

const (
	// ResultUnchanged means an identical document was already stored; no
	// write happened.
	ResultUnchanged UpsertResult = iota
	// ResultInserted means no document existed for the identity.
	ResultInserted
	// ResultUpdated means the existing document's content was replaced.
	ResultUpdated
)

// String returns the result's log-friendly name.
func (r UpsertResult) String() string {
	switch r {
	case ResultUnchanged:
		return "unchanged"
	case ResultInserted:
		return "inserted"
	case ResultUpdated:
		return "updated"
	}
	return "unknown"
}

// Store persists canonical records keyed by (dataset, trading date).
// The per-identity atomic upsert is the only synchronization primitive the
// system relies on; overlapping runs for the same identity must not
// interleave into a mixed-field document.
type Store interface {
	// Upsert inserts or replaces the record for its identity. With force
	// false, an identical stored document (same source checksum) is left
	// untouched and reported Unchanged. With force true the document is
	// rewritten regardless, refreshing fetched_at.
	Upsert(ctx context.Context, rec model.CanonicalRecord, force bool) (UpsertResult, error)

	// Get returns the record for the exact identity, if stored.
	Get(ctx context.Context, dataset model.Dataset, date time.Time) (model.CanonicalRecord, bool, error)

	// Latest returns the most recent record for the dataset with trading
	// date at or before asOf, if any.
	Latest(ctx context.Context, dataset model.Dataset, asOf time.Time) (model.CanonicalRecord, bool, error)

	// Close releases the backing connection.
	Close(ctx context.Context) error
}
