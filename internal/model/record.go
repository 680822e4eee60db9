package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Dataset identifies one of the daily TAIFEX tables we track.
type Dataset string

const (
	// DatasetPCRatio is the options put/call ratio table.
	DatasetPCRatio Dataset = "pc_ratio"
	// DatasetFutContracts is the small TAIEX futures (MTX) institutional
	// net-position table.
	DatasetFutContracts Dataset = "fut_contracts"
)

// ParseDataset converts a CLI/config string into a Dataset.
func ParseDataset(s string) (Dataset, error) {
	switch Dataset(s) {
	case DatasetPCRatio:
		return DatasetPCRatio, nil
	case DatasetFutContracts:
		return DatasetFutContracts, nil
	}
	return "", fmt.Errorf("unknown dataset %q (expected %s or %s)", s, DatasetPCRatio, DatasetFutContracts)
}

// RawPayload holds the field set extracted from one published table row,
// values kept exactly as the exchange printed them (thousands commas and
// all) so the checksum fingerprints the source content, not our parsing.
type RawPayload map[string]string

// Checksum returns a hex sha256 over the payload rendered with keys in
// sorted order. Identical rows always hash identically regardless of map
// iteration order.
func (p RawPayload) Checksum() string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(p[k])
		b.WriteByte('\n')
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// CanonicalRecord is the stored shape of one day's data for one dataset.
// (Dataset, TradingDate) is the unique identity; the store keeps at most
// one document per identity.
type CanonicalRecord struct {
	Dataset        Dataset            `bson:"dataset" json:"dataset"`
	TradingDate    time.Time          `bson:"trading_date" json:"trading_date"`
	Fields         map[string]float64 `bson:"fields" json:"fields"`
	FetchedAt      time.Time          `bson:"fetched_at" json:"fetched_at"`
	SourceChecksum string             `bson:"source_checksum" json:"source_checksum"`
}

// Date builds the canonical representation of a trading date: midnight UTC.
// All date comparisons and store lookups go through this form.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf truncates an arbitrary timestamp to its canonical trading-date form.
func DateOf(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}
