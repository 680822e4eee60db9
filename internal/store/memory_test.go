package store

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/Walter66888/taifex-linebot-aggregator/internal/model"
)

func record(date time.Time, checksum string, ratio float64) model.CanonicalRecord {
	return model.CanonicalRecord{
		Dataset:        model.DatasetPCRatio,
		TradingDate:    date,
		Fields:         map[string]float64{"pc_oi_ratio": ratio},
		FetchedAt:      time.Date(2024, time.January, 3, 15, 0, 0, 0, time.UTC),
		SourceChecksum: checksum,
	}
}

func TestMemoryStore_Upsert_Idempotent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	date := model.Date(2024, time.January, 3)
	rec := record(date, "abc", 0.87)

	res, err := s.Upsert(ctx, rec, false)
	if err != nil {
		t.Fatalf("Upsert() returned unexpected error: %v", err)
	}
	if res != ResultInserted {
		t.Errorf("first Upsert() = %v, want inserted", res)
	}

	res, err = s.Upsert(ctx, rec, false)
	if err != nil {
		t.Fatalf("Upsert() returned unexpected error: %v", err)
	}
	if res != ResultUnchanged {
		t.Errorf("second Upsert() = %v, want unchanged", res)
	}

	stored, ok, err := s.Get(ctx, model.DatasetPCRatio, date)
	if err != nil || !ok {
		t.Fatalf("Get() = ok %v, err %v", ok, err)
	}
	if !reflect.DeepEqual(stored, rec) {
		t.Errorf("stored record drifted after idempotent upserts:\n got %+v\nwant %+v", stored, rec)
	}
}

func TestMemoryStore_Upsert_UpdateInPlace(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	date := model.Date(2024, time.January, 3)

	if _, err := s.Upsert(ctx, record(date, "abc", 0.87), false); err != nil {
		t.Fatalf("Upsert() returned unexpected error: %v", err)
	}

	revised := record(date, "def", 0.91)
	res, err := s.Upsert(ctx, revised, false)
	if err != nil {
		t.Fatalf("Upsert() returned unexpected error: %v", err)
	}
	if res != ResultUpdated {
		t.Errorf("Upsert() = %v, want updated", res)
	}

	stored, ok, _ := s.Get(ctx, model.DatasetPCRatio, date)
	if !ok {
		t.Fatal("Get() found nothing after update")
	}
	if stored.SourceChecksum != "def" || stored.Fields["pc_oi_ratio"] != 0.91 {
		t.Errorf("Get() returned stale content: %+v", stored)
	}
}

func TestMemoryStore_Upsert_ForceRewritesUnchanged(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	date := model.Date(2024, time.January, 3)

	first := record(date, "abc", 0.87)
	if _, err := s.Upsert(ctx, first, false); err != nil {
		t.Fatalf("Upsert() returned unexpected error: %v", err)
	}

	// Same content, later fetch time: force refreshes the metadata.
	refetched := first
	refetched.FetchedAt = first.FetchedAt.Add(time.Hour)
	res, err := s.Upsert(ctx, refetched, true)
	if err != nil {
		t.Fatalf("Upsert() returned unexpected error: %v", err)
	}
	if res != ResultUpdated {
		t.Errorf("forced Upsert() = %v, want updated", res)
	}

	stored, _, _ := s.Get(ctx, model.DatasetPCRatio, date)
	if !stored.FetchedAt.Equal(refetched.FetchedAt) {
		t.Errorf("FetchedAt = %v, want refreshed %v", stored.FetchedAt, refetched.FetchedAt)
	}
}

func TestMemoryStore_Get_Absent(t *testing.T) {
	s := NewMemoryStore()
	_, ok, err := s.Get(context.Background(), model.DatasetPCRatio, model.Date(2024, time.January, 3))
	if err != nil {
		t.Fatalf("Get() returned unexpected error: %v", err)
	}
	if ok {
		t.Error("Get() reported a record in an empty store")
	}
}

func TestMemoryStore_IdentityIsolation(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	date := model.Date(2024, time.January, 3)

	pc := record(date, "abc", 0.87)
	fut := pc
	fut.Dataset = model.DatasetFutContracts
	fut.Fields = map[string]float64{"retail_net": 1266}

	if _, err := s.Upsert(ctx, pc, false); err != nil {
		t.Fatalf("Upsert() returned unexpected error: %v", err)
	}
	if res, err := s.Upsert(ctx, fut, false); err != nil || res != ResultInserted {
		t.Fatalf("Upsert() for second dataset = %v, %v; want inserted, nil", res, err)
	}

	stored, ok, _ := s.Get(ctx, model.DatasetFutContracts, date)
	if !ok || stored.Fields["retail_net"] != 1266 {
		t.Errorf("datasets interfered: %+v", stored)
	}
}

func TestMemoryStore_Latest(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for _, d := range []time.Time{
		model.Date(2024, time.January, 2),
		model.Date(2024, time.January, 3),
		model.Date(2024, time.January, 5),
	} {
		if _, err := s.Upsert(ctx, record(d, "sum-"+d.Format("0102"), 0.8), false); err != nil {
			t.Fatalf("Upsert() returned unexpected error: %v", err)
		}
	}

	tests := []struct {
		name     string
		asOf     time.Time
		wantDate time.Time
		wantOK   bool
	}{
		{"exact hit", model.Date(2024, time.January, 3), model.Date(2024, time.January, 3), true},
		{"weekend falls back", model.Date(2024, time.January, 4), model.Date(2024, time.January, 3), true},
		{"after everything", model.Date(2024, time.February, 1), model.Date(2024, time.January, 5), true},
		{"before everything", model.Date(2024, time.January, 1), time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, ok, err := s.Latest(ctx, model.DatasetPCRatio, tt.asOf)
			if err != nil {
				t.Fatalf("Latest() returned unexpected error: %v", err)
			}
			if ok != tt.wantOK {
				t.Fatalf("Latest() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !rec.TradingDate.Equal(tt.wantDate) {
				t.Errorf("Latest() date = %v, want %v", rec.TradingDate, tt.wantDate)
			}
		})
	}
}

func TestMemoryStore_StoredRecordIsIsolated(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	date := model.Date(2024, time.January, 3)

	rec := record(date, "abc", 0.87)
	if _, err := s.Upsert(ctx, rec, false); err != nil {
		t.Fatalf("Upsert() returned unexpected error: %v", err)
	}

	// Mutating the caller's map must not reach stored state.
	rec.Fields["pc_oi_ratio"] = 9.99

	stored, _, _ := s.Get(ctx, model.DatasetPCRatio, date)
	if stored.Fields["pc_oi_ratio"] != 0.87 {
		t.Errorf("stored record shares memory with caller: %v", stored.Fields["pc_oi_ratio"])
	}
}
