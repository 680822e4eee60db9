package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Walter66888/taifex-linebot-aggregator/internal/calendar"
	"github.com/Walter66888/taifex-linebot-aggregator/internal/config"
	"github.com/Walter66888/taifex-linebot-aggregator/internal/model"
	"github.com/Walter66888/taifex-linebot-aggregator/internal/runner"
	"github.com/Walter66888/taifex-linebot-aggregator/internal/store"
	"github.com/Walter66888/taifex-linebot-aggregator/internal/taifex"
)

// Exit codes form the three-way contract with the external scheduler:
// success, "no data yet, don't alert", and hard failure.
const (
	exitOK      = 0
	exitPending = 75 // conventional "neutral" code, ignored by CI retry loops
	exitFailure = 1
)

var (
	flagForce = flag.Bool("force", false, "rewrite the stored document even when content is unchanged")
	flagStart = flag.String("start", "", "backfill start date YYYY-MM-DD (inclusive)")
	flagEnd   = flag.String("end", "", "backfill end date YYYY-MM-DD (inclusive)")
)

func main() {
	os.Exit(run())
}

func run() int {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(),
			"Usage: crawler [--force] [--start YYYY-MM-DD --end YYYY-MM-DD] <%s|%s>\n",
			model.DatasetPCRatio, model.DatasetFutContracts)
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if flag.NArg() != 1 {
		flag.Usage()
		return exitFailure
	}
	dataset, err := model.ParseDataset(flag.Arg(0))
	if err != nil {
		logger.Error("bad dataset argument", "error", err)
		return exitFailure
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		return exitFailure
	}
	holidays, err := cfg.HolidayDates()
	if err != nil {
		logger.Error("bad holiday configuration", "error", err)
		return exitFailure
	}
	cal := calendar.NewTaiwan(holidays, nil)

	ctx := context.Background()
	st, err := store.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		return exitFailure
	}
	defer st.Close(ctx)

	var fetcher taifex.Fetcher
	switch dataset {
	case model.DatasetPCRatio:
		fetcher = taifex.NewPCRatioFetcher(cfg.TaifexBaseURL, cal)
	case model.DatasetFutContracts:
		fetcher = taifex.NewFutContractsFetcher(cfg.TaifexBaseURL, cal)
	}

	r := runner.New(fetcher, st, logger)

	if *flagStart != "" || *flagEnd != "" {
		return runBackfill(ctx, r, logger, dataset)
	}
	return runToday(ctx, r, logger, dataset, cal.Today())
}

func runToday(ctx context.Context, r *runner.Runner, logger *slog.Logger, dataset model.Dataset, date time.Time) int {
	res, err := r.Run(ctx, date, *flagForce)
	if err != nil {
		logger.Error("crawl failed", "dataset", dataset, "date", date.Format("2006-01-02"), "error", err)
		return exitFailure
	}

	switch res.Status {
	case runner.StatusPending:
		logger.Info("data not published yet", "dataset", dataset, "date", date.Format("2006-01-02"))
		return exitPending
	default:
		logger.Info("crawl finished",
			"dataset", dataset,
			"date", date.Format("2006-01-02"),
			"status", res.Status)
		return exitOK
	}
}

func runBackfill(ctx context.Context, r *runner.Runner, logger *slog.Logger, dataset model.Dataset) int {
	if *flagStart == "" || *flagEnd == "" {
		logger.Error("backfill needs both --start and --end")
		return exitFailure
	}
	start, err := time.Parse("2006-01-02", *flagStart)
	if err != nil {
		logger.Error("bad --start date", "error", err)
		return exitFailure
	}
	end, err := time.Parse("2006-01-02", *flagEnd)
	if err != nil {
		logger.Error("bad --end date", "error", err)
		return exitFailure
	}

	results, err := r.Backfill(ctx, start, end, *flagForce)

	var updated, current, pending, failed int
	for _, dr := range results {
		switch {
		case dr.Err != nil:
			failed++
		case dr.Result.Status == runner.StatusUpdated:
			updated++
		case dr.Result.Status == runner.StatusAlreadyCurrent:
			current++
		case dr.Result.Status == runner.StatusPending:
			pending++
		}
	}
	logger.Info("backfill finished",
		"dataset", dataset,
		"updated", updated,
		"already_current", current,
		"pending", pending,
		"failed", failed)

	if err != nil {
		logger.Error("backfill had failures", "error", err)
		return exitFailure
	}
	return exitOK
}
