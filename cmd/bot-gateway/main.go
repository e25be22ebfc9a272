package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"wa-nutrition-bot/internal/adapters/assistant"
	"wa-nutrition-bot/internal/adapters/estimator"
	"wa-nutrition-bot/internal/adapters/whatsapp"
	"wa-nutrition-bot/internal/domain"
	"wa-nutrition-bot/internal/infra/config"
	httpinfra "wa-nutrition-bot/internal/infra/http"
	"wa-nutrition-bot/internal/infra/log"
	"wa-nutrition-bot/internal/infra/metrics"
	openaiinfra "wa-nutrition-bot/internal/infra/openai"
	"wa-nutrition-bot/internal/infra/session"
	"wa-nutrition-bot/internal/usecase/chat"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := log.NewLogger(cfg.AppEnv)

	if cfg.WhatsApp.APIKey == "" {
		logger.Fatal().Msg("D360_API_KEY is not set")
	}

	metrics.MustRegister(prometheus.DefaultRegisterer)

	loc, err := time.LoadLocation(cfg.TZ)
	if err != nil {
		logger.Warn().Err(err).Str("tz", cfg.TZ).Msg("invalid timezone, using UTC")
		loc = time.UTC
	}

	var store domain.SessionStore
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		store = session.NewRedis(client, cfg.Limits.HistoryTurns)
		logger.Info().Str("addr", cfg.RedisAddr).Msg("using redis session store")
	} else {
		store = session.NewMemory(cfg.Limits.HistoryTurns)
	}

	sender := whatsapp.NewSender(
		cfg.WhatsApp.BaseURL,
		cfg.WhatsApp.APIKey,
		time.Duration(cfg.WhatsApp.SendTimeoutSeconds)*time.Second,
		logger.With().Str("component", "dispatcher").Logger(),
		whatsapp.DefaultVariants(),
	)

	llmClient := openaiinfra.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, time.Duration(cfg.OpenAI.TimeoutSeconds)*time.Second)
	replier := assistant.NewOpenAI(llmClient, cfg.OpenAI.Model, time.Duration(cfg.OpenAI.TimeoutSeconds)*time.Second)

	chatService := chat.NewService(store, estimator.NewTable(), sender, sender, replier, logger.With().Str("component", "chat").Logger(), loc)
	webhook := whatsapp.NewHandler(chatService, logger.With().Str("component", "webhook").Logger(), cfg.WhatsApp.VerifyToken)

	srv := httpinfra.NewServer(logger)
	srv.Router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Kali online ✅"))
	})
	srv.Router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ok := true
		if cfg.WhatsApp.TestTo != "" {
			ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
			defer cancel()
			if _, err := sender.SendText(ctx, cfg.WhatsApp.TestTo, "Ping de saúde ✅"); err != nil {
				ok = false
			}
		}
		w.Header().Set("Content-Type", "application/json")
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
		}
		_ = json.NewEncoder(w).Encode(map[string]bool{"ok": ok})
	})
	srv.Router.Get("/webhook", webhook.HandleVerify)
	srv.Router.Post("/webhook", webhook.HandleWebhook)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(":" + strconv.Itoa(cfg.Port)); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("HTTP server stopped")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
