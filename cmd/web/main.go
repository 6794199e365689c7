package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sourcegraph/conc"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/anggiadiputra/donasiku-sub000/internal/cache"
	"github.com/anggiadiputra/donasiku-sub000/internal/config"
	"github.com/anggiadiputra/donasiku-sub000/internal/events"
	apphttp "github.com/anggiadiputra/donasiku-sub000/internal/http"
	"github.com/anggiadiputra/donasiku-sub000/internal/modules/campaigns"
	"github.com/anggiadiputra/donasiku-sub000/internal/modules/email"
	"github.com/anggiadiputra/donasiku-sub000/internal/modules/notify"
	"github.com/anggiadiputra/donasiku-sub000/internal/modules/payments"
	"github.com/anggiadiputra/donasiku-sub000/internal/modules/transactions"
)

func main() {
	// Load .env file (ignore error if not found - prod uses real env vars)
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if err := run(logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := gorm.Open(mysql.Open(cfg.DBDSN), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
		defer sqlDB.Close()
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.Kafka.Enabled() {
		kp, err := events.DialKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return err
		}
		publisher = kp
		logger.Info("kafka event stream enabled", "topic", cfg.Kafka.Topic)
	}
	defer publisher.Close()

	var throttle cache.Throttle = cache.NewMemoryThrottle()
	if cfg.Redis.Addr != "" {
		rdb, err := cache.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		throttle = cache.NewRedisThrottle(rdb, "donasiku:")
	}

	mail, err := email.NewSender(cfg)
	if err != nil {
		return err
	}
	var whatsapp notify.WhatsAppSender
	if cfg.WhatsApp.Enabled() {
		whatsapp = notify.NewWhatsAppClient(cfg.WhatsApp)
	} else {
		logger.Warn("whatsapp notifications disabled")
	}

	dispatcher := notify.NewDispatcher(cfg, notify.Options{
		WhatsApp: whatsapp,
		Email:    mail,
		DB:       db,
		Events:   publisher,
		Logger:   logger,
	})

	campaignRepo := campaigns.NewRepo(db, cfg.DBTimeout)
	store := transactions.NewStore(db, cfg.DBTimeout)
	gateway := payments.NewDuitkuClient(cfg.Gateway)

	// detached notifications are tracked so shutdown can wait for them
	var background conc.WaitGroup

	deps := payments.Deps{
		Config:    cfg,
		Store:     store,
		Resolver:  campaigns.NewResolver(campaignRepo, logger),
		Campaigns: campaignRepo,
		Gateway:   gateway,
		Notifier:  dispatcher,
		Events:    publisher,
		Logger:    logger,
		Go:        background.Go,
	}
	donations := payments.NewDonationService(deps)
	reconciler := payments.NewReconciler(deps, throttle)
	callbacks := payments.NewCallbackService(db, reconciler, logger)

	router := apphttp.NewRouter(logger, apphttp.Deps{
		DB:           db,
		JWTSecret:    cfg.Auth.JWTSecret,
		Gateway:      gateway,
		Donations:    donations,
		Poller:       reconciler,
		Callbacks:    callbacks,
		AdminList:    store,
		AdminRecheck: reconciler,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	background.Go(func() { reconciler.RunSweeper(ctx, cfg.Reconcile.Interval) })

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.HTTPAddr, "env", cfg.Env, "gateway_sandbox", cfg.Gateway.Sandbox)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "err", err)
	}
	stop()
	background.Wait()
	return nil
}
