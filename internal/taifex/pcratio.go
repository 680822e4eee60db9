package taifex

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"resty.dev/v3"

	"github.com/Walter66888/taifex-linebot-aggregator/internal/calendar"
	"github.com/Walter66888/taifex-linebot-aggregator/internal/errs"
	"github.com/Walter66888/taifex-linebot-aggregator/internal/model"
	"github.com/Walter66888/taifex-linebot-aggregator/internal/ratelimit"
)

const pcRatioPath = "/cht/3/pcRatioExcel"

// pcRatioColumns is the published column order of the put/call ratio table.
var pcRatioColumns = []string{
	"date",
	"put_volume",
	"call_volume",
	"pc_volume_ratio",
	"put_oi",
	"call_oi",
	"pc_oi_ratio",
}

// Data rows start with a YYYY/ date; everything above is header noise.
var pcRatioRowPattern = regexp.MustCompile(`^20\d{2}/`)

// PCRatioFetcher pulls the options put/call ratio table. The endpoint
// returns roughly the last month of rows; the fetcher extracts the one for
// the requested date.
type PCRatioFetcher struct {
	client *resty.Client
	cal    calendar.Calendar
}

// NewPCRatioFetcher creates a put/call ratio fetcher against the given
// exchange base URL.
func NewPCRatioFetcher(baseURL string, cal calendar.Calendar) *PCRatioFetcher {
	return &PCRatioFetcher{
		client: newHTTPClient(baseURL),
		cal:    cal,
	}
}

// Dataset identifies this fetcher's table.
func (f *PCRatioFetcher) Dataset() model.Dataset {
	return model.DatasetPCRatio
}

// Fetch retrieves the raw put/call ratio row for the given trading date.
func (f *PCRatioFetcher) Fetch(ctx context.Context, tradingDate time.Time) FetchOutcome {
	if !publishable(f.cal, tradingDate) {
		return NotYetPublished()
	}

	if err := ratelimit.GetLimiter().Wait(ctx, ratelimit.APIPCRatio); err != nil {
		return TransientError(errs.NewTransient("rate limiter interrupted", err))
	}

	resp, err := f.client.R().
		SetContext(ctx).
		Get(pcRatioPath)
	if err != nil {
		return TransientError(errs.NewTransient("pc ratio request failed", err))
	}
	if !resp.IsSuccess() {
		return TransientError(errs.NewTransient(fmt.Sprintf("taifex returned status %d", resp.StatusCode()), nil))
	}

	rows, err := parsePCRatioTable(resp.String())
	if err != nil {
		return TransientError(err)
	}

	raw, ok := rows[model.DateOf(tradingDate)]
	if !ok {
		// Table parsed fine but holds no row for this date: the exchange
		// hasn't published it yet.
		return NotYetPublished()
	}
	return Available(raw)
}

// parsePCRatioTable extracts data rows keyed by trading date. The endpoint
// has served both comma- and whitespace-separated variants over time, so
// both are accepted.
func parsePCRatioTable(text string) (map[time.Time]model.RawPayload, error) {
	rows := make(map[time.Time]model.RawPayload)

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !pcRatioRowPattern.MatchString(line) {
			continue
		}

		var cols []string
		if strings.Contains(line, ",") {
			cols = strings.Split(line, ",")
		} else {
			cols = strings.Fields(line)
		}
		if len(cols) != len(pcRatioColumns) {
			return nil, errs.NewTransient(fmt.Sprintf("unexpected column count %d in pc ratio row", len(cols)), nil)
		}

		raw := make(model.RawPayload, len(cols))
		for i, name := range pcRatioColumns {
			raw[name] = strings.TrimSpace(cols[i])
		}

		date, err := time.Parse("2006/1/2", raw["date"])
		if err != nil {
			return nil, errs.NewTransient(fmt.Sprintf("unparseable date %q in pc ratio row", raw["date"]), err)
		}
		rows[model.DateOf(date)] = raw
	}

	if len(rows) == 0 {
		return nil, errs.NewTransient("no data rows in pc ratio table; source layout may have changed", nil)
	}
	return rows, nil
}
