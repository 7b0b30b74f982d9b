package main

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"montchatsouvenir/internal/app"
	"montchatsouvenir/internal/config"
	"montchatsouvenir/internal/ratelimit"
	"montchatsouvenir/internal/server"
	"montchatsouvenir/internal/util"
	"montchatsouvenir/pkg/events"
	"montchatsouvenir/pkg/session"
	"montchatsouvenir/pkg/storage"
	"montchatsouvenir/pkg/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	sessionTTL := time.Duration(cfg.SessionTTLMinutes) * time.Minute
	tokens, err := session.NewTokens(cfg.SessionTokenSecret, sessionTTL)
	if err != nil {
		log.Fatalf("failed to init session tokens: %v", err)
	}
	cache := session.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, sessionTTL)

	uploadStore, err := store.NewGormStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to init upload store: %v", err)
	}

	mediaStore, err := storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	if err != nil {
		log.Fatalf("failed to init media store: %v", err)
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQPURL)
		if err != nil {
			log.Fatalf("failed to init event publisher: %v", err)
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
	}

	limiter, err := ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "mts:ratelimit:upload", cfg.UploadRatePerMinute, time.Minute)
	if err != nil {
		log.Fatalf("failed to init rate limiter: %v", err)
	}

	maxUploadBytes := cfg.MaxUploadMB << 20
	appCore, err := app.New(app.Config{
		Store:          uploadStore,
		Cache:          cache,
		Media:          mediaStore,
		Events:         publisher,
		MaxFileBytes:   maxUploadBytes,
		ProcessTimeout: time.Duration(cfg.ProcessTimeoutSeconds) * time.Second,
		MediaURLTTL:    time.Duration(cfg.MediaURLTTLMinutes) * time.Minute,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	httpServer, err := server.New(server.Config{
		App:            appCore,
		Tokens:         tokens,
		UploadLimiter:  limiter,
		MaxUploadBytes: maxUploadBytes,
		CORSOrigin:     cfg.CORSOrigin,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	slog.Info("extract server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
