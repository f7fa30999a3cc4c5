package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"brainwave/internal/bot"
	"brainwave/internal/config"
	"brainwave/internal/content"
	"brainwave/internal/database"
	"brainwave/internal/digest"
	"brainwave/internal/scheduler"
	"brainwave/internal/session"
	"brainwave/internal/summarizer"
	"brainwave/internal/youtube"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	start := time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.ErrorContext(ctx, "Failed to load config",
			"error", err)

		return
	}

	db, err := database.New(ctx, cfg.DBPath, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize db",
			"error", err,
			"dbPath", cfg.DBPath)

		return
	}
	defer func() {
		if err = db.Close(); err != nil {
			log.ErrorContext(ctx, "Failed to close db",
				"error", err,
				"dbPath", cfg.DBPath)
		}
	}()
	log.InfoContext(ctx, "DB is initialized",
		"dbPath", cfg.DBPath)

	if cfg.LLMAPIKey == "" {
		log.WarnContext(ctx, "LLM_API_KEY is missing so users must provide their own key",
			"envVar", "LLM_API_KEY")
	}

	httpClient := &http.Client{}
	service := digest.New(
		content.NewFetcher(httpClient, log),
		youtube.NewLoader(httpClient, youtube.DefaultBaseURL, log),
		summarizer.NewOpenAISummarizer(cfg.LLMBaseURL, cfg.LLMModel),
		db,
		log,
	)
	log.InfoContext(ctx, "Digest service is initialized",
		"llmBaseURL", cfg.LLMBaseURL,
		"llmModel", cfg.LLMModel)

	sessions := session.NewStore(session.DefaultMaxEntries, cfg.SessionTTL)

	botInst, err := bot.New(cfg.Token, bot.Options{
		Digest:        service,
		History:       db,
		Sessions:      sessions,
		DefaultAPIKey: cfg.LLMAPIKey,
		HistoryLimit:  cfg.HistoryLimit,
		AllowedUsers:  cfg.AllowedUsers,
	}, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize bot",
			"error", err,
			"allowedUsersCount", len(cfg.AllowedUsers))

		return
	}
	log.InfoContext(ctx, "Bot is initialized",
		"allowedUsersCount", len(cfg.AllowedUsers))

	sched := scheduler.New(ctx, sessions, db, cfg.HistoryRetention, log)

	if err = sched.Start(); err != nil {
		log.ErrorContext(ctx, "Failed to start scheduler",
			"error", err,
			"sessionSweepSpec", scheduler.SessionSweepSpec,
			"historyPruneSpec", scheduler.HistoryPruneSpec)

		return
	}
	defer sched.Stop()
	log.InfoContext(ctx, "Scheduler is started",
		"sessionSweepSpec", scheduler.SessionSweepSpec,
		"historyPruneSpec", scheduler.HistoryPruneSpec,
		"timezone", time.FixedZone(scheduler.Timezone, scheduler.TimezoneOffsetSeconds).String())

	go func() {
		botInst.Start(ctx)
	}()
	log.InfoContext(ctx, "Bot is started",
		"sessionTTL", cfg.SessionTTL.String())

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	sig := <-c
	log.InfoContext(ctx, "Shutdown signal is received",
		"signal", sig.String())
	cancel()

	log.InfoContext(ctx, "Exiting...",
		"signal", sig.String(),
		"uptimeSeconds", time.Since(start).Seconds())

	botInst.Stop()
	log.InfoContext(ctx, "Bot is stopped",
		"uptimeSeconds", time.Since(start).Seconds())
}
