package taifex

import (
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"resty.dev/v3"

	"github.com/Walter66888/taifex-linebot-aggregator/internal/calendar"
	"github.com/Walter66888/taifex-linebot-aggregator/internal/errs"
	"github.com/Walter66888/taifex-linebot-aggregator/internal/model"
	"github.com/Walter66888/taifex-linebot-aggregator/internal/ratelimit"
)

const (
	futContractsPath = "/cht/3/futContractsDateExcel"

	// mtxProductName is the small TAIEX futures product row we track.
	mtxProductName = "小型臺指期貨"
)

// futContractsHeaders maps the published Chinese column headers to raw
// payload field names.
var futContractsHeaders = map[string]string{
	"日期":          "date",
	"商品名稱":        "product",
	"多空淨額(自營商)":   "prop_net",
	"多空淨額(投信)":    "itf_net",
	"多空淨額(外資及陸資)": "foreign_net",
}

// FutContractsFetcher pulls the futures institutional net-position table
// and extracts the MTX row for the requested date.
type FutContractsFetcher struct {
	client *resty.Client
	cal    calendar.Calendar
}

// NewFutContractsFetcher creates an MTX net-position fetcher against the
// given exchange base URL.
func NewFutContractsFetcher(baseURL string, cal calendar.Calendar) *FutContractsFetcher {
	return &FutContractsFetcher{
		client: newHTTPClient(baseURL),
		cal:    cal,
	}
}

// Dataset identifies this fetcher's table.
func (f *FutContractsFetcher) Dataset() model.Dataset {
	return model.DatasetFutContracts
}

// Fetch retrieves the raw MTX net-position row for the given trading date.
func (f *FutContractsFetcher) Fetch(ctx context.Context, tradingDate time.Time) FetchOutcome {
	if !publishable(f.cal, tradingDate) {
		return NotYetPublished()
	}

	if err := ratelimit.GetLimiter().Wait(ctx, ratelimit.APIFutContracts); err != nil {
		return TransientError(errs.NewTransient("rate limiter interrupted", err))
	}

	resp, err := f.client.R().
		SetContext(ctx).
		Get(futContractsPath)
	if err != nil {
		return TransientError(errs.NewTransient("fut contracts request failed", err))
	}
	if !resp.IsSuccess() {
		return TransientError(errs.NewTransient(fmt.Sprintf("taifex returned status %d", resp.StatusCode()), nil))
	}

	rows, err := parseFutContractsTable(resp.String())
	if err != nil {
		return TransientError(err)
	}

	raw, ok := rows[model.DateOf(tradingDate)]
	if !ok {
		return NotYetPublished()
	}
	return Available(raw)
}

// parseFutContractsTable extracts MTX rows keyed by trading date from the
// CSV table.
func parseFutContractsTable(text string) (map[time.Time]model.RawPayload, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errs.NewTransient("fut contracts table is not valid csv", err)
	}

	// Locate the header row and the columns we need.
	headerIdx := -1
	colIdx := make(map[string]int, len(futContractsHeaders))
	for i, record := range records {
		colIdx = matchHeaders(record)
		if len(colIdx) == len(futContractsHeaders) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, errs.NewTransient("fut contracts header row not found; source layout may have changed", nil)
	}

	rows := make(map[time.Time]model.RawPayload)
	for _, record := range records[headerIdx+1:] {
		raw := make(model.RawPayload, len(colIdx))
		ok := true
		for name, idx := range colIdx {
			if idx >= len(record) {
				ok = false
				break
			}
			raw[name] = strings.TrimSpace(record[idx])
		}
		if !ok || raw["product"] != mtxProductName {
			continue
		}

		date, err := time.Parse("2006/1/2", raw["date"])
		if err != nil {
			return nil, errs.NewTransient(fmt.Sprintf("unparseable date %q in fut contracts row", raw["date"]), err)
		}
		rows[model.DateOf(date)] = raw
	}

	if len(rows) == 0 {
		return nil, errs.NewTransient("no MTX rows in fut contracts table; source layout may have changed", nil)
	}
	return rows, nil
}

// matchHeaders maps raw field names to their column positions in a
// candidate header record. Incomplete matches mean this isn't the header.
func matchHeaders(record []string) map[string]int {
	colIdx := make(map[string]int)
	for i, cell := range record {
		cell = strings.TrimSpace(cell)
		if name, ok := futContractsHeaders[cell]; ok {
			colIdx[name] = i
		}
	}
	return colIdx
}
