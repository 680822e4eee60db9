package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/Walter66888/taifex-linebot-aggregator/internal/calendar"
	"github.com/Walter66888/taifex-linebot-aggregator/internal/config"
	"github.com/Walter66888/taifex-linebot-aggregator/internal/query"
	"github.com/Walter66888/taifex-linebot-aggregator/internal/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.RequireLineCredentials(); err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	holidays, err := cfg.HolidayDates()
	if err != nil {
		logger.Error("bad holiday configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	st, err := store.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close(ctx)

	bot, err := messaging_api.NewMessagingApiAPI(cfg.LineChannelToken)
	if err != nil {
		logger.Error("failed to create LINE client", "error", err)
		os.Exit(1)
	}

	h := &callbackHandler{
		secret:  cfg.LineChannelSecret,
		bot:     bot,
		service: query.NewService(st, logger),
		cal:     calendar.NewTaiwan(holidays, nil),
		logger:  logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/callback", h)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("botserver listening", "addr", cfg.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

type callbackHandler struct {
	secret  string
	bot     *messaging_api.MessagingApiAPI
	service *query.Service
	cal     calendar.Calendar
	logger  *slog.Logger
}

// ServeHTTP handles the LINE webhook: verify the signature, then reply to
// each text message with either the daily report or the usage hint.
func (h *callbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cb, err := webhook.ParseRequest(h.secret, r)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			h.logger.Warn("webhook signature rejected")
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		h.logger.Error("webhook parse failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	for _, event := range cb.Events {
		me, ok := event.(webhook.MessageEvent)
		if !ok {
			continue
		}
		tm, ok := me.Message.(webhook.TextMessageContent)
		if !ok {
			continue
		}

		reply := query.UsageReply
		if strings.EqualFold(strings.TrimSpace(tm.Text), "/today") {
			reply = h.service.TodayReport(r.Context(), h.cal.Today())
		}

		_, err := h.bot.ReplyMessage(&messaging_api.ReplyMessageRequest{
			ReplyToken: me.ReplyToken,
			Messages: []messaging_api.MessageInterface{
				messaging_api.TextMessage{Text: reply},
			},
		})
		if err != nil {
			h.logger.Error("reply failed", "error", err)
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
