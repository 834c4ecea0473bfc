package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cartonline/quotebot/internal/ai"
	"github.com/cartonline/quotebot/internal/bot"
	"github.com/cartonline/quotebot/internal/config"
	"github.com/cartonline/quotebot/internal/ledger"
	"github.com/cartonline/quotebot/internal/logging"
	"github.com/cartonline/quotebot/internal/maytapi"
	"github.com/cartonline/quotebot/internal/pipeline"
	"github.com/cartonline/quotebot/internal/quotepdf"
	"github.com/cartonline/quotebot/internal/session"
	"github.com/cartonline/quotebot/internal/sheets"
	"github.com/cartonline/quotebot/internal/store"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	clients, err := config.LoadClients(cfg.ClientsFile)
	if err != nil {
		logger.Fatal("clients", zap.Error(err))
	}

	db, err := store.NewBoltStore(filepath.Join(cfg.DataDir, "quotebot.db"))
	if err != nil {
		logger.Fatal("store", zap.Error(err))
	}
	defer db.Close()

	ctx := context.Background()
	sheetsClient, err := sheets.NewClient(ctx, cfg.GoogleServiceAccountJSON)
	if err != nil {
		logger.Fatal("sheets", zap.Error(err))
	}

	var quoteLedger pipeline.Ledger = sheetsClient
	if cfg.LedgerBackend == config.LedgerPostgres {
		pg, err := ledger.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("ledger", zap.Error(err))
		}
		defer pg.Close()
		quoteLedger = pg
	}

	mt := maytapi.NewClient(cfg.MaytapiProductID, cfg.MaytapiPhoneID, cfg.MaytapiAPIKey)

	opts := []pipeline.Option{pipeline.WithCallTimeout(cfg.CallTimeout)}
	if cfg.AssistantEnabled() {
		opts = append(opts, pipeline.WithAssistant(ai.NewAssistant(cfg.OpenAIAPIKey, cfg.OpenAIModel, db, logger)))
	}
	if cfg.QuotePDF {
		opts = append(opts, pipeline.WithDocument(quotepdf.New(cfg.CompanyName, cfg.PDFFontDir), mt))
	}
	quotes := pipeline.New(sheetsClient, quoteLedger, mt, logger, opts...)

	sessionMgr := session.NewManager(cfg.RateLimitPerMinute)

	// Periodic cleanup of idle per-phone limiters and old dedupe ids
	go func() {
		sessions := time.NewTicker(30 * time.Minute)
		seen := time.NewTicker(time.Hour)
		defer sessions.Stop()
		defer seen.Stop()
		for {
			select {
			case <-sessions.C:
				sessionMgr.Cleanup(time.Hour)
			case <-seen.C:
				n, err := db.PruneSeen(time.Now().Add(-24 * time.Hour))
				if err != nil {
					logger.Warn("prune seen messages", zap.Error(err))
					continue
				}
				logger.Debug("pruned seen messages", zap.Int("removed", n))
			}
		}
	}()

	botHandler := bot.NewHandler(clients, db, sessionMgr, quotes, mt, logger)
	webhookHandler := maytapi.NewWebhookHandler(botHandler.CheckClient, botHandler.HandleMessage, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newRouter(webhookHandler.HandleIncoming),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("quotebot: listening",
			zap.String("port", cfg.Port),
			zap.Int("clients", clients.Len()),
			zap.String("ledger", cfg.LedgerBackend),
			zap.Bool("assistant", cfg.AssistantEnabled()),
			zap.Bool("pdf", cfg.QuotePDF),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("quotebot: shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
	if err := webhookHandler.Wait(shutdownCtx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
	logger.Info("quotebot: stopped")
}
