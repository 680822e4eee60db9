package query

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Walter66888/taifex-linebot-aggregator/internal/model"
	"github.com/Walter66888/taifex-linebot-aggregator/internal/store"
)

// Bot reply copy. The audience is the same Taiwanese trader group the
// original report targeted, so the strings stay in Chinese.
const (
	// NotAvailableReply is sent when either dataset has no stored record.
	NotAvailableReply = "今日資料尚未更新，請稍後再試"
	// UsageReply is sent for any unrecognized command.
	UsageReply = "指令：/today"
)

// Service answers read-only queries against the stored records. It never
// surfaces internal fetch or store errors to the caller; an error on the
// read path renders the same as "not available yet".
type Service struct {
	store  store.Store
	logger *slog.Logger
}

// NewService creates a query service. logger may be nil.
func NewService(st store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, logger: logger}
}

// Latest returns the most recent stored record for the dataset at or
// before asOf. Store errors are logged and reported as absence.
func (s *Service) Latest(ctx context.Context, dataset model.Dataset, asOf time.Time) (model.CanonicalRecord, bool) {
	rec, ok, err := s.store.Latest(ctx, dataset, asOf)
	if err != nil {
		s.logger.Error("store read failed", "dataset", dataset, "error", err)
		return model.CanonicalRecord{}, false
	}
	return rec, ok
}

// TodayReport renders the combined daily summary for both datasets as of
// the given date, or the not-available message if either is missing.
func (s *Service) TodayReport(ctx context.Context, asOf time.Time) string {
	pc, okPC := s.Latest(ctx, model.DatasetPCRatio, asOf)
	mtx, okMTX := s.Latest(ctx, model.DatasetFutContracts, asOf)
	if !okPC || !okMTX {
		return NotAvailableReply
	}

	return fmt.Sprintf("日期：%s\n🧮 PC ratio 未平倉比：%.2f\n散戶小台未平倉：%s 口",
		pc.TradingDate.Format("2006/01/02 (Mon)"),
		pc.Fields["pc_oi_ratio"],
		formatSigned(int64(mtx.Fields["retail_net"])))
}

// formatSigned renders an integer with an explicit sign and thousands
// separators, e.g. +1,234 or -56.
func formatSigned(n int64) string {
	sign := "+"
	if n < 0 {
		sign = "-"
		n = -n
	}

	digits := strconv.FormatInt(n, 10)
	var groups []string
	for len(digits) > 3 {
		groups = append([]string{digits[len(digits)-3:]}, groups...)
		digits = digits[:len(digits)-3]
	}
	groups = append([]string{digits}, groups...)

	return sign + strings.Join(groups, ",")
}
