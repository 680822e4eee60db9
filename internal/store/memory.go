package store

import (
	"context"
	"sync"
	"time"

	"github.com/Walter66888/taifex-linebot-aggregator/internal/model"
)

type memKey struct {
	dataset model.Dataset
	date    time.Time
}

var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-process Store with the same upsert semantics as the
// MongoDB backend. Used by tests and local runs without a database.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[memKey]model.CanonicalRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[memKey]model.CanonicalRecord)}
}

// Upsert inserts or replaces the record under its identity key.
func (s *MemoryStore) Upsert(_ context.Context, rec model.CanonicalRecord, force bool) (UpsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := memKey{dataset: rec.Dataset, date: model.DateOf(rec.TradingDate)}
	existing, ok := s.docs[key]
	if !ok {
		s.docs[key] = cloneRecord(rec)
		return ResultInserted, nil
	}
	if !force && existing.SourceChecksum == rec.SourceChecksum {
		return ResultUnchanged, nil
	}
	s.docs[key] = cloneRecord(rec)
	return ResultUpdated, nil
}

// Get returns the record for the exact identity, if stored.
func (s *MemoryStore) Get(_ context.Context, dataset model.Dataset, date time.Time) (model.CanonicalRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.docs[memKey{dataset: dataset, date: model.DateOf(date)}]
	if !ok {
		return model.CanonicalRecord{}, false, nil
	}
	return cloneRecord(rec), true, nil
}

// Latest returns the most recent record at or before asOf.
func (s *MemoryStore) Latest(_ context.Context, dataset model.Dataset, asOf time.Time) (model.CanonicalRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := model.DateOf(asOf)
	var best model.CanonicalRecord
	found := false
	for key, rec := range s.docs {
		if key.dataset != dataset || key.date.After(cutoff) {
			continue
		}
		if !found || key.date.After(best.TradingDate) {
			best = rec
			found = true
		}
	}
	if !found {
		return model.CanonicalRecord{}, false, nil
	}
	return cloneRecord(best), true, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close(context.Context) error {
	return nil
}

// cloneRecord copies the record so callers can't mutate stored state
// through the shared fields map.
func cloneRecord(rec model.CanonicalRecord) model.CanonicalRecord {
	fields := make(map[string]float64, len(rec.Fields))
	for k, v := range rec.Fields {
		fields[k] = v
	}
	rec.Fields = fields
	return rec
}
