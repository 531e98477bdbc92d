package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bowerhall/autopost/internal/auth"
	"github.com/bowerhall/autopost/internal/authapi"
	"github.com/bowerhall/autopost/internal/bot"
	"github.com/bowerhall/autopost/internal/caption"
	"github.com/bowerhall/autopost/internal/cleanup"
	"github.com/bowerhall/autopost/internal/config"
	"github.com/bowerhall/autopost/internal/llm"
	"github.com/bowerhall/autopost/internal/logger"
	"github.com/bowerhall/autopost/internal/media"
	"github.com/bowerhall/autopost/internal/orchestrator"
	"github.com/bowerhall/autopost/internal/storage"
	"github.com/bowerhall/autopost/internal/userstore"
	"github.com/bowerhall/autopost/internal/workflow"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

func init() {
	godotenv.Load()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", "error", err)
	}

	model, err := llm.New(llm.Config{
		Provider:  cfg.LLM.Provider,
		APIKey:    cfg.LLM.APIKey,
		Model:     cfg.LLM.Model,
		BaseURL:   cfg.LLM.BaseURL,
		MaxTokens: cfg.Caption.MaxTokens,
	})
	if err != nil {
		logger.Fatal("failed to create llm", "error", err)
	}

	systemPrompt, err := caption.LoadPrompt(cfg.Caption.PromptFile)
	if err != nil {
		logger.Fatal("failed to load caption prompt", "error", err)
	}
	captions := caption.NewGenerator(model, systemPrompt)

	users, err := userstore.Open(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("failed to open user store", "error", err)
	}
	defer users.Close()

	authSvc := auth.NewService(users, auth.Config{
		JWTSecret:     cfg.Auth.JWTSecret,
		RefreshSecret: cfg.Auth.RefreshSecret,
		SetupKey:      cfg.Auth.SetupKey,
	})

	tg, err := bot.NewTelegram(cfg.Telegram.Token, cfg.Telegram.Channel)
	if err != nil {
		logger.Fatal("failed to create telegram bot", "error", err)
	}

	fetcher, err := media.NewFetcher(tg, cfg.UploadDir)
	if err != nil {
		logger.Fatal("failed to create media fetcher", "error", err)
	}

	publisher := workflow.NewPublisher(tg, captions)

	// minio archive (optional)
	if cfg.Storage.Enabled {
		archiver, err := storage.NewClient(storage.Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
		})
		if err != nil {
			logger.Error("failed to create storage client", "error", err)
		} else {
			initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := archiver.Init(initCtx); err != nil {
				logger.Error("failed to init storage bucket", "error", err)
			} else {
				publisher.SetArchiver(archiver)
				logger.Info("archive enabled", "endpoint", cfg.Storage.Endpoint)
			}
			cancel()
		}
	}

	// discord announcer (optional)
	if cfg.Discord.Enabled {
		announcer, err := bot.NewDiscord(cfg.Discord.Token, cfg.Discord.ChannelID)
		if err != nil {
			logger.Error("failed to create discord announcer", "error", err)
		} else {
			publisher.SetAnnouncer(announcer)
			logger.Info("discord announcer enabled", "channel", cfg.Discord.ChannelID)
		}
	}

	orch := orchestrator.New(orchestrator.Config{
		Verifier:        authSvc,
		Captions:        captions,
		Fetcher:         fetcher,
		Responder:       tg,
		Publisher:       publisher,
		MediaGroupDelay: cfg.MediaGroupDelay,
	})

	// hourly sweep of abandoned uploads; drafts still on a session are kept
	sweeper := cleanup.NewSweeper(fetcher.Dir(), cfg.SweepMaxAge, func(path string) bool {
		return orch.Sessions().ReferencedPhotos()[path]
	})
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("invalid timezone, using UTC", "tz", cfg.Timezone, "error", err)
		loc = time.UTC
	}
	sched := cron.New(cron.WithLocation(loc))
	if _, err := sched.AddFunc(cfg.SweepSchedule, func() {
		if n := sweeper.Sweep(); n > 0 {
			logger.Info("swept stale uploads", "removed", n)
		}
	}); err != nil {
		logger.Fatal("failed to schedule sweep", "schedule", cfg.SweepSchedule, "error", err)
	}
	sched.Start()
	defer sched.Stop()

	api := authapi.NewServer(authSvc)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
		logger.Info("auth api listening", "addr", addr)
		if err := api.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("auth api failed", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		err := tg.Start(ctx, orch)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Fatal("telegram bot failed", "error", err)
		}
	}()
	logger.Info("bot started", "channel", cfg.Telegram.Channel)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := api.Shutdown(shutdownCtx); err != nil {
		logger.Error("auth api shutdown failed", "error", err)
	}
}
