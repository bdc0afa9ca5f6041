package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"voice-gateway/internal/api"
	"voice-gateway/internal/catalog"
	"voice-gateway/internal/config"
	"voice-gateway/internal/mailer"
	"voice-gateway/internal/metrics"
	"voice-gateway/internal/resolver"
	"voice-gateway/internal/seed"
	"voice-gateway/internal/store"
	"voice-gateway/internal/voice"
	"voice-gateway/internal/webhook"
	"voice-gateway/internal/ws"
	"voice-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Path: cfg.LogPath})
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	for _, w := range cfg.Warnings {
		log.Warn(w)
	}
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	templates := store.NewTemplateStore()
	recipients := store.NewRecipientStore()
	sessions := store.NewSessionStore(cfg.SessionTTL)

	m, err := metrics.New(metrics.Stores{Templates: templates, Recipients: recipients, Sessions: sessions})
	if err != nil {
		log.Fatal("Failed to register metrics", zap.Error(err))
	}

	voiceClient := voice.NewClient(cfg)
	var tools catalog.ToolClient
	if cfg.ToolRegistrationEnabled() {
		tools = voiceClient
	} else {
		log.Info("VOICE_API_KEY not set, templates will not be registered as tools")
	}
	cat := catalog.New(templates, tools, m, log.Named("catalog"))

	if cfg.TemplatesFile != "" {
		f, err := seed.ReadFile(cfg.TemplatesFile)
		if err != nil {
			log.Error("Failed to read templates file", zap.String("path", cfg.TemplatesFile), zap.Error(err))
		} else {
			if f.WebhookBaseURL != "" && cfg.WebhookBaseURL == config.DefaultWebhookBaseURL {
				voiceClient.WebhookBaseURL = strings.TrimRight(f.WebhookBaseURL, "/")
			}
			seed.Load(context.Background(), cat, f, log.Named("seed"))
		}
	}

	var sender mailer.Sender
	if cfg.SMTPEnabled() {
		sender = mailer.NewSMTPSender(cfg, log.Named("mailer"))
	} else {
		log.Warn("SMTP not configured, webhook emails are only logged")
		sender = mailer.NewLogSender(log.Named("mailer"))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := ws.NewHub(log.Named("ws"))
	go hub.Run(ctx)

	res := resolver.New(templates, recipients, sessions, log.Named("resolver"))

	r := setupRouter(handlers{
		templates: api.NewTemplateHandler(cat, res, hub),
		batch:     api.NewBatchHandler(recipients, hub),
		sessions:  api.NewSessionHandler(sessions, hub),
		webhook:   webhook.NewHandler(res, sender, m, hub, log.Named("webhook")),
		hub:       hub,
		metrics:   m,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr), zap.String("webhook_base_url", voiceClient.WebhookBaseURL))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to run server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		os.Exit(1)
	}
	log.Info("Server exited")
}
