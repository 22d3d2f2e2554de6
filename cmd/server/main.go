package main

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"fixmyad/internal/app"
	"fixmyad/internal/config"
	"fixmyad/internal/convertclient"
	"fixmyad/internal/identity"
	"fixmyad/internal/quota"
	"fixmyad/internal/server"
	"fixmyad/internal/util"
	"fixmyad/pkg/ai"
	"fixmyad/pkg/billing"
	"fixmyad/pkg/storage"
	"fixmyad/pkg/store"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	st, err := store.NewGormStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to init store: %v", err)
	}

	generator := ai.NewOpenAIGenerator(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel)
	speech := ai.NewSpeechClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.TTSModel)

	followups, err := quota.NewRedisFollowupCounter(cfg.RedisAddr, cfg.RedisPassword, "fixmyad:followups", 0)
	if err != nil {
		log.Fatalf("failed to init follow-up counter: %v", err)
	}

	billingClient, err := billing.NewClient(billing.Config{
		SecretKey:     cfg.StripeSecretKey,
		WebhookSecret: cfg.StripeWebhookSecret,
		PriceID:       cfg.StripePriceID,
		SiteURL:       cfg.SiteURL,
	})
	if err != nil {
		log.Fatalf("failed to init billing: %v", err)
	}

	var objects storage.ObjectStore
	if cfg.MinioEndpoint != "" {
		objects, err = storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Fatalf("failed to init object store: %v", err)
		}
	}

	var convert *convertclient.Client
	if cfg.ConvertServiceURL != "" {
		convert = convertclient.NewClient(cfg.ConvertServiceURL)
	}

	var verifier *identity.Verifier
	if cfg.JWKSURL != "" {
		leeway, err := config.ParseJWTLeeway(cfg.JWTLeeway)
		if err != nil {
			log.Fatalf("failed to parse JWT leeway: %v", err)
		}
		verifier, err = identity.NewVerifier(identity.Config{
			JWKSURL:  cfg.JWKSURL,
			Issuer:   cfg.JWTIssuer,
			Audience: cfg.JWTAudience,
			Leeway:   leeway,
		})
		if err != nil {
			log.Fatalf("failed to init token verifier: %v", err)
		}
	}

	trusted, err := util.NewTrustedProxies(cfg.TrustedProxyCIDRs)
	if err != nil {
		log.Fatalf("failed to parse trusted proxies: %v", err)
	}

	appCore := app.New(st, generator, followups, cfg.FreeFollowupLimit)

	httpServer := server.New(server.Config{
		App:               appCore,
		Store:             st,
		Speech:            speech,
		Billing:           billingClient,
		Objects:           objects,
		Convert:           convert,
		TokenVerifier:     verifier,
		TrustedProxies:    trusted,
		MaxUploadBytes:    cfg.MaxUploadBytes,
		AllowedExtensions: cfg.AllowedExtensions,
		FreeMaxAdSeconds:  cfg.FreeMaxAdSeconds,
		ProMaxAdSeconds:   cfg.ProMaxAdSeconds,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
