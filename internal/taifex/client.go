package taifex

import (
	"log/slog"
	"time"

	"resty.dev/v3"

	"github.com/Walter66888/taifex-linebot-aggregator/internal/calendar"
	"github.com/Walter66888/taifex-linebot-aggregator/internal/model"
)

const (
	// Default retry configuration
	defaultRetryCount       = 3
	defaultRetryWaitTime    = 1 * time.Second
	defaultRetryMaxWaitTime = 10 * time.Second

	// requestTimeout bounds every request to the exchange; an unresponsive
	// source must surface as a transient error, not a hang.
	requestTimeout = 30 * time.Second

	userAgent = "Mozilla/5.0 (taifex-aggregator/1.0)"
)

// newHTTPClient creates an HTTP client for the exchange with a bounded
// timeout and retry logic with exponential backoff
func newHTTPClient(baseURL string) *resty.Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("User-Agent", userAgent).
		SetTimeout(requestTimeout).
		SetRetryCount(defaultRetryCount).
		SetRetryWaitTime(defaultRetryWaitTime).
		SetRetryMaxWaitTime(defaultRetryMaxWaitTime).
		AddRetryConditions(retryCondition).
		AddRetryHooks(retryHook)

	return client
}

// retryCondition determines whether a request should be retried based on the response and error
func retryCondition(r *resty.Response, err error) bool {
	// Retry on network errors
	if err != nil {
		return true
	}

	// Retry on server errors (5xx)
	if r.StatusCode() >= 500 {
		return true
	}

	// Retry on rate limit (429)
	if r.StatusCode() == 429 {
		return true
	}

	// Retry on request timeout (408)
	if r.StatusCode() == 408 {
		return true
	}

	// Don't retry on client errors (4xx except 429)
	if r.StatusCode() >= 400 && r.StatusCode() < 500 {
		return false
	}

	return false
}

// retryHook logs retry attempts for observability
func retryHook(r *resty.Response, err error) {
	if err != nil {
		slog.Debug("retrying request due to error",
			"url", r.Request.URL,
			"attempt", r.Request.Attempt,
			"error", err.Error())
		return
	}

	slog.Debug("retrying request due to status code",
		"url", r.Request.URL,
		"attempt", r.Request.Attempt,
		"status_code", r.StatusCode())
}

// publishable reports whether the exchange could have data for the date at
// all: past or present trading days only. Weekends, configured holidays and
// future dates deterministically have nothing to fetch.
func publishable(cal calendar.Calendar, date time.Time) bool {
	d := model.DateOf(date)
	if d.After(cal.Today()) {
		return false
	}
	return cal.IsTradingDay(d)
}
