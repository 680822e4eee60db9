package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Walter66888/taifex-linebot-aggregator/internal/errs"
	"github.com/Walter66888/taifex-linebot-aggregator/internal/model"
)

// Sanity bounds. A breach means the source layout drifted and we parsed the
// wrong column, not that the market did something interesting.
const (
	maxVolume       = 1e9 // contracts traded or open in one day
	maxRatioPercent = 1e4 // put/call ratios are published as percentages
	maxNetPosition  = 1e7 // absolute institutional net position
)

// nonNegative fields for the put/call ratio dataset.
var pcRatioFields = map[string]float64{
	"put_volume":      maxVolume,
	"call_volume":     maxVolume,
	"pc_volume_ratio": maxRatioPercent,
	"put_oi":          maxVolume,
	"call_oi":         maxVolume,
	"pc_oi_ratio":     maxRatioPercent,
}

// signed net-position fields for the futures dataset.
var futContractsFields = []string{"prop_net", "itf_net", "foreign_net"}

// Normalize maps a raw fetched row into the dataset's canonical record.
// It is deterministic: the same raw payload always yields the same fields
// and checksum, which is what makes checksum-based change detection work.
// FetchedAt is left zero; the caller stamps it at write time.
func Normalize(dataset model.Dataset, tradingDate time.Time, raw model.RawPayload) (model.CanonicalRecord, error) {
	var fields map[string]float64
	var err error

	switch dataset {
	case model.DatasetPCRatio:
		fields, err = normalizePCRatio(raw)
	case model.DatasetFutContracts:
		fields, err = normalizeFutContracts(raw)
	default:
		return model.CanonicalRecord{}, errs.NewValidation(fmt.Sprintf("unknown dataset %q", dataset))
	}
	if err != nil {
		return model.CanonicalRecord{}, err
	}

	return model.CanonicalRecord{
		Dataset:        dataset,
		TradingDate:    model.DateOf(tradingDate),
		Fields:         fields,
		SourceChecksum: raw.Checksum(),
	}, nil
}

func normalizePCRatio(raw model.RawPayload) (map[string]float64, error) {
	fields := make(map[string]float64, len(pcRatioFields))
	for name, max := range pcRatioFields {
		v, err := requireNumber(raw, name)
		if err != nil {
			return nil, err
		}
		if v < 0 {
			return nil, errs.NewValidation(fmt.Sprintf("%s is negative: %v", name, v))
		}
		if v > max {
			return nil, errs.NewValidation(fmt.Sprintf("%s is out of range: %v", name, v))
		}
		fields[name] = v
	}
	return fields, nil
}

func normalizeFutContracts(raw model.RawPayload) (map[string]float64, error) {
	fields := make(map[string]float64, len(futContractsFields)+1)
	var sum float64
	for _, name := range futContractsFields {
		v, err := requireNumber(raw, name)
		if err != nil {
			return nil, err
		}
		if v < -maxNetPosition || v > maxNetPosition {
			return nil, errs.NewValidation(fmt.Sprintf("%s is out of range: %v", name, v))
		}
		fields[name] = v
		sum += v
	}
	// Retail position is the mirror of the three institutional categories.
	fields["retail_net"] = -sum
	return fields, nil
}

func requireNumber(raw model.RawPayload, name string) (float64, error) {
	s, ok := raw[name]
	if !ok || strings.TrimSpace(s) == "" {
		return 0, errs.NewValidation(fmt.Sprintf("required field %s is missing", name))
	}
	v, err := parseNumber(s)
	if err != nil {
		return 0, errs.NewValidation(fmt.Sprintf("field %s is not numeric: %q", name, s))
	}
	return v, nil
}

// parseNumber handles the exchange's thousands commas and stray spaces.
func parseNumber(raw string) (float64, error) {
	clean := strings.ReplaceAll(raw, ",", "")
	clean = strings.TrimSpace(clean)
	return strconv.ParseFloat(clean, 64)
}
