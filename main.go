package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"seloger-notifier/classifier"
	"seloger-notifier/config"
	"seloger-notifier/metrics"
	"seloger-notifier/models"
	"seloger-notifier/notifier"
	"seloger-notifier/scraper/chrome"
	"seloger-notifier/scraper/seloger"
	"seloger-notifier/services"
	"seloger-notifier/storage"
	"seloger-notifier/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()
	logger.SetLevel(cfg.LogLevel)

	logger.Info("=== SeLoger notifier starting ===")
	logger.Info("Config: store: %s | classifier: %s | page size: %d | rate: %dms | interval: %v",
		cfg.StoreBackend, cfg.Classifier, cfg.PageSize, cfg.RateLimitMs, cfg.RunInterval)

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration: %v", err)
		os.Exit(1)
	}

	criteria, err := config.LoadCriteria(cfg.CriteriaPath)
	if err != nil {
		logger.Error("Failed to load search criteria: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open %s store: %v", cfg.StoreBackend, err)
		os.Exit(1)
	}
	defer store.Close()

	fetcher, err := chrome.New(chrome.Options{
		ChromeBin:   cfg.ChromeBin,
		PageTimeout: cfg.PageTimeout,
		SettleDelay: cfg.SettleDelay,
		RateLimitMs: cfg.RateLimitMs,
		MaxRetries:  cfg.MaxRetries,
	}, logger)
	if err != nil {
		logger.Error("Failed to start browser: %v", err)
		os.Exit(1)
	}
	defer fetcher.Close()

	var exporter storage.RecordExporter
	if cfg.ExportCSV != "" {
		csvWriter, err := storage.NewCSVWriter(cfg.ExportCSV)
		if err != nil {
			logger.Error("Failed to create CSV writer: %v", err)
			os.Exit(1)
		}
		exporter = csvWriter
	}

	m := metrics.New()
	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr, m, logger)
		defer srv.Shutdown(context.Background())
	}

	pipeline := services.NewPipeline(services.PipelineConfig{
		Site:       seloger.New(fetcher, seloger.NewFileDownloader(cfg.ImageDir), logger, cfg.PageSize),
		Classifier: newClassifier(cfg, logger),
		Notifier: notifier.NewTelegram(notifier.TelegramOptions{
			Token:      cfg.TelegramBotToken,
			ChatID:     cfg.TelegramChatID,
			MaxRetries: cfg.NotifyMaxRetries,
			RetryDelay: cfg.NotifyRetryDelay,
		}, logger),
		Store:      store,
		Exporter:   exporter,
		Metrics:    m,
		Logger:     logger,
		FlushEvery: cfg.ProcessedFlushEvery,
	})

	if err := run(ctx, pipeline, criteria, cfg.RunInterval, logger); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
	logger.Info("=== SeLoger notifier stopped ===")
}

// run executes one cycle, or one cycle per interval until ctx is done.
func run(ctx context.Context, p *services.Pipeline, criteria models.SearchCriteria, interval time.Duration, logger *utils.Logger) error {
	for {
		report, err := p.RunCycle(ctx, criteria)
		if report != nil {
			report.Print(os.Stdout)
			logger.Info("[main] Cycle done: %s", report.Summary())
		}
		if err != nil {
			return err
		}

		if interval <= 0 || ctx.Err() != nil {
			return nil
		}
		logger.Info("[main] Next cycle in %v", interval)
		if err := utils.SleepContext(ctx, interval); err != nil {
			return nil
		}
	}
}

func openStore(ctx context.Context, cfg *config.Config, logger *utils.Logger) (storage.RecordStore, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		return storage.NewPostgresStore(cfg.DSN(), logger)
	case config.BackendRedis:
		return storage.NewRedisStore(ctx, &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, cfg.RedisPrefix, logger)
	default:
		return storage.NewFileStore(cfg.ProcessedPath(), cfg.ResultsPath(), logger), nil
	}
}

func newClassifier(cfg *config.Config, logger *utils.Logger) classifier.Classifier {
	var model classifier.Completer
	switch cfg.Classifier {
	case config.ClassifierCohere:
		model = classifier.NewCohere(cfg.CohereAPIKey, cfg.CohereModel)
	default:
		model = classifier.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel, logger)
	}
	return classifier.New(model, logger)
}

func serveMetrics(addr string, m *metrics.Metrics, logger *utils.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		logger.Info("[main] Serving metrics on %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("[main] Metrics server failed: %v", err)
		}
	}()
	return srv
}
