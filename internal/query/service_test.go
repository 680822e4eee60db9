package query

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Walter66888/taifex-linebot-aggregator/internal/model"
	"github.com/Walter66888/taifex-linebot-aggregator/internal/store"
)

func seed(t *testing.T, st store.Store, dataset model.Dataset, date time.Time, fields map[string]float64) {
	t.Helper()
	_, err := st.Upsert(context.Background(), model.CanonicalRecord{
		Dataset:        dataset,
		TradingDate:    date,
		Fields:         fields,
		FetchedAt:      date.Add(15 * time.Hour),
		SourceChecksum: "sum-" + string(dataset) + date.Format("20060102"),
	}, false)
	if err != nil {
		t.Fatalf("seed upsert failed: %v", err)
	}
}

func TestTodayReport(t *testing.T) {
	st := store.NewMemoryStore()
	date := model.Date(2024, time.January, 3)
	seed(t, st, model.DatasetPCRatio, date, map[string]float64{"pc_oi_ratio": 0.87})
	seed(t, st, model.DatasetFutContracts, date, map[string]float64{"retail_net": 1266})

	svc := NewService(st, nil)
	report := svc.TodayReport(context.Background(), date)

	for _, want := range []string{
		"日期：2024/01/03 (Wed)",
		"PC ratio 未平倉比：0.87",
		"散戶小台未平倉：+1,266 口",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}

func TestTodayReport_NegativeRetail(t *testing.T) {
	st := store.NewMemoryStore()
	date := model.Date(2024, time.January, 3)
	seed(t, st, model.DatasetPCRatio, date, map[string]float64{"pc_oi_ratio": 1.02})
	seed(t, st, model.DatasetFutContracts, date, map[string]float64{"retail_net": -23456})

	svc := NewService(st, nil)
	report := svc.TodayReport(context.Background(), date)

	if !strings.Contains(report, "-23,456 口") {
		t.Errorf("report missing negative retail figure:\n%s", report)
	}
}

func TestTodayReport_NotAvailable(t *testing.T) {
	st := store.NewMemoryStore()
	date := model.Date(2024, time.January, 3)
	// Only one of the two datasets is present.
	seed(t, st, model.DatasetPCRatio, date, map[string]float64{"pc_oi_ratio": 0.87})

	svc := NewService(st, nil)
	report := svc.TodayReport(context.Background(), date)

	if report != NotAvailableReply {
		t.Errorf("report = %q, want not-available reply", report)
	}
}

func TestTodayReport_EmptyStore(t *testing.T) {
	svc := NewService(store.NewMemoryStore(), nil)
	report := svc.TodayReport(context.Background(), model.Date(2024, time.January, 2))
	if report != NotAvailableReply {
		t.Errorf("report = %q, want not-available reply", report)
	}
}

func TestLatest_FallsBackToPriorDay(t *testing.T) {
	st := store.NewMemoryStore()
	tradingDay := model.Date(2024, time.January, 3)
	seed(t, st, model.DatasetPCRatio, tradingDay, map[string]float64{"pc_oi_ratio": 0.87})

	svc := NewService(st, nil)
	// Querying on a later day with no data yet falls back to the last record.
	rec, ok := svc.Latest(context.Background(), model.DatasetPCRatio, model.Date(2024, time.January, 4))
	if !ok {
		t.Fatal("Latest() found nothing")
	}
	if !rec.TradingDate.Equal(tradingDay) {
		t.Errorf("Latest() date = %v, want %v", rec.TradingDate, tradingDay)
	}
}

func TestFormatSigned(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "+0"},
		{7, "+7"},
		{-7, "-7"},
		{1266, "+1,266"},
		{-23456, "-23,456"},
		{1234567, "+1,234,567"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := formatSigned(tt.in); got != tt.want {
				t.Errorf("formatSigned(%d) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
