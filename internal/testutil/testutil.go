package testutil

import (
	"context"
	"time"

	"github.com/Walter66888/taifex-linebot-aggregator/internal/model"
	"github.com/Walter66888/taifex-linebot-aggregator/internal/taifex"
)

// MockFetcher is a mock implementation of the taifex.Fetcher interface for
// testing the runner without a network.
type MockFetcher struct {
	DatasetValue model.Dataset
	FetchFunc    func(ctx context.Context, tradingDate time.Time) taifex.FetchOutcome
}

// Dataset implements the Fetcher interface
func (m *MockFetcher) Dataset() model.Dataset {
	if m.DatasetValue == "" {
		return model.DatasetPCRatio
	}
	return m.DatasetValue
}

// Fetch implements the Fetcher interface
func (m *MockFetcher) Fetch(ctx context.Context, tradingDate time.Time) taifex.FetchOutcome {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, tradingDate)
	}
	return taifex.NotYetPublished()
}

// NewMockFetcher creates a mock fetcher that returns the same outcome for
// every date.
func NewMockFetcher(dataset model.Dataset, outcome taifex.FetchOutcome) *MockFetcher {
	return &MockFetcher{
		DatasetValue: dataset,
		FetchFunc: func(context.Context, time.Time) taifex.FetchOutcome {
			return outcome
		},
	}
}
