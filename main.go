package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"tirebot/config"
	"tirebot/extract"
	"tirebot/notify"
	"tirebot/services"
	"tirebot/storage"
	"tirebot/utils"
)

func main() {
	cfg := config.Load()
	logger := utils.NewLoggerLevel(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Run failed: %v", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *utils.Logger) error {
	logger.Info("=== TireBot starting ===")
	logger.Info("Config — store: %s | sources: %v | delay: %s | notify: %s",
		cfg.DBDriver, cfg.EnabledSources, cfg.QueryDelay(), cfg.NotifyMode)
	for _, size := range cfg.Targets.Buckets() {
		logger.Info("Aro %d: limit %s", int(size), extract.FormatBRL(cfg.Targets.Limits[size]))
	}

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	var (
		raw       storage.RawCandidateWriter
		csvWriter *storage.CSVWriter
	)
	if cfg.CSVOutputPath != "" {
		csvWriter, err = storage.NewCSVWriter(cfg.CSVOutputPath)
		if err != nil {
			logger.Warn("CSV dump disabled: %v", err)
		} else {
			defer csvWriter.Close()
			raw = csvWriter
		}
	}

	sources, closers := buildSources(cfg, logger)
	for _, c := range closers {
		defer c.Close()
	}
	if len(sources) == 0 {
		logger.Warn("No usable sources; the report will be empty")
	}

	pipeline := services.NewPipeline(services.PipelineConfig{
		Limits:            cfg.Targets.Limits,
		Queries:           cfg.Targets.Queries(),
		RequiredTerms:     cfg.Targets.RequiredTerms,
		Delay:             cfg.QueryDelay(),
		CheapestPerBucket: cfg.CheapestPerBucket,
		IncludeUnpriced:   cfg.IncludeUnpriced,
	}, store, raw, services.NewCleaner(logger, extract.NewExtractor()), logger, sources...)

	report, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}
	services.NewInsightService(logger).Print(report)
	if csvWriter != nil {
		logger.Info("Raw candidates dumped: %d row(s) in %s", csvWriter.Rows(), cfg.CSVOutputPath)
	}
	if n, err := store.Count(ctx); err != nil {
		logger.Warn("Could not count stored deals: %v", err)
	} else {
		logger.Info("Deals stored: %d", n)
	}

	mode := notify.ParseMode(cfg.NotifyMode)
	if !notify.ShouldSend(report, mode) {
		logger.Info("Nothing new and NOTIFY_MODE=%s; no message sent", mode)
		return nil
	}

	text := notify.Format(report, notify.FormatOptions{MaxLines: cfg.MaxAlertLines})
	notifier := notify.NewTelegramNotifier(cfg.TelegramAPIURL, cfg.TelegramBotToken, cfg.TelegramChatID, cfg.FetchTimeout())
	if err := notifier.Send(ctx, text); err != nil {
		return err
	}
	logger.Info("Telegram message sent (%d new deal(s))", len(report.Alerts))
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *utils.Logger) (*storage.SQLStore, error) {
	if cfg.DBDriver == config.DriverPostgres {
		logger.Info("Opening PostgreSQL store at %s:%s/%s", cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresDB)
		return storage.OpenPostgres(ctx, cfg.DSN(), logger)
	}
	logger.Info("Opening SQLite store at %s", cfg.SQLitePath)
	return storage.OpenSQLite(ctx, cfg.SQLitePath)
}
