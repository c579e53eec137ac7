package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/SARVESHVARADKAR123/biolink/internal/billing"
	"github.com/SARVESHVARADKAR123/biolink/internal/cache"
	"github.com/SARVESHVARADKAR123/biolink/internal/clicks"
	"github.com/SARVESHVARADKAR123/biolink/internal/config"
	"github.com/SARVESHVARADKAR123/biolink/internal/handler"
	"github.com/SARVESHVARADKAR123/biolink/internal/kafka"
	"github.com/SARVESHVARADKAR123/biolink/internal/observability"
	"github.com/SARVESHVARADKAR123/biolink/internal/outbox"
	"github.com/SARVESHVARADKAR123/biolink/internal/page"
	"github.com/SARVESHVARADKAR123/biolink/internal/plan"
	"github.com/SARVESHVARADKAR123/biolink/internal/repository"
	"github.com/SARVESHVARADKAR123/biolink/internal/session"
	"github.com/SARVESHVARADKAR123/biolink/internal/tx"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// Observability
	observability.InitLogger(cfg.ServiceName, cfg.LogLevel)
	log := observability.Log
	defer func() { _ = log.Sync() }()

	if cfg.TracingEnabled {
		tp, err := observability.InitTracer(cfg.ServiceName, cfg.JaegerURL)
		if err != nil {
			log.Fatal("failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				log.Error("failed to shutdown tracer provider", zap.Error(err))
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := repository.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close()

	// HTTP Server for Observability (Metrics & Health)
	obsMux := chi.NewRouter()
	if cfg.MetricsEnabled {
		obsMux.Handle("/metrics", promhttp.Handler())
	}
	obsMux.Get("/health/live", observability.HealthLiveHandler)
	obsMux.Get("/health/ready", observability.HealthReadyHandler(db))
	obsSrv := &http.Server{Addr: cfg.ObsHTTPAddr, Handler: obsMux}

	go func() {
		log.Info("HTTP observability server started", zap.String("addr", cfg.ObsHTTPAddr))
		if err := obsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP observability server failed", zap.Error(err))
		}
	}()

	// Redis
	rdb := cache.New(cfg.RedisAddr)
	defer rdb.Close()

	// Repositories
	txm := &tx.Manager{DB: db}
	outboxRepo := outbox.NewRepository(db)
	profileRepo := &repository.ProfileRepo{DB: db}
	linkRepo := &repository.LinkRepo{DB: db}
	socialRepo := &repository.SocialLinkRepo{DB: db}
	founderRepo := &repository.FounderRepo{DB: db}
	clickRepo := &repository.ClickRepo{TX: txm, Outbox: outboxRepo}
	subscriptionRepo := &repository.SubscriptionRepo{TX: txm, Outbox: outboxRepo}

	// Services
	plans := &plan.Service{Founders: founderRepo}
	sessions := session.NewStore(profileRepo, &cache.ProfileCache{R: rdb, TTL: cfg.ProfileCacheTTL}, plans)
	tracker := clicks.NewTracker(linkRepo, clickRepo, []byte(cfg.ClickIPHashKey))

	pageCfg := page.DefaultConfig()
	pageCfg.ProfileTimeout = cfg.PageTimeout
	pageCfg.LinkTimeout = cfg.PageTimeout
	pageCfg.SocialTimeout = cfg.SocialTimeout
	pageCfg.MaxAttempts = cfg.PageMaxAttempts

	var billingHandler *handler.BillingHandler
	if cfg.BillingEnabled() {
		checkout := &billing.Checkout{
			Founders:   founderRepo,
			Gateway:    billing.NewStripeGateway(cfg.StripeSecretKey),
			PriceID:    cfg.StripePriceID,
			SuccessURL: cfg.CheckoutSuccessURL,
			CancelURL:  cfg.CheckoutCancelURL,
		}
		webhook := &billing.Webhook{
			Secret:   cfg.StripeWebhookSecret,
			Store:    subscriptionRepo,
			Sessions: sessions,
		}
		billingHandler = handler.NewBillingHandler(checkout, webhook)
	} else {
		log.Warn("stripe not configured, billing routes disabled")
	}

	// Kafka producer + outbox publisher
	if len(cfg.KafkaBrokers) > 0 {
		producer := kafka.NewProducer(cfg.KafkaBrokers)
		defer producer.Close()

		publisher := outbox.NewPublisher(outboxRepo, producer, 2*time.Second, 50)
		go publisher.Start(ctx)

		// Kafka consumer, auto-create profile on user registration
		go kafka.StartUserCreatedConsumer(ctx, cfg.KafkaBrokers, profileRepo)
	} else {
		log.Warn("no kafka brokers configured, outbox events stay unpublished")
	}

	// HTTP server
	mux := handler.NewRouter(cfg, handler.Deps{
		Pages:    handler.PageSources{Profiles: profileRepo, Links: linkRepo, Socials: socialRepo},
		PageCfg:  pageCfg,
		Clicks:   tracker,
		Sessions: sessions,
		Billing:  billingHandler,
		DB:       db,
	})
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		log.Info("biolink HTTP started", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("received signal, initiating shutdown")
	cancel() // stop outbox publisher + kafka consumer

	ctxShut, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutCancel()

	_ = srv.Shutdown(ctxShut)
	tracker.Wait()
	_ = obsSrv.Shutdown(ctxShut)
	log.Info("biolink stopped")
}
