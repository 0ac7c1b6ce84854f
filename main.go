package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/linesmerrill/police-case-api/api"
	"github.com/linesmerrill/police-case-api/api/handlers"
	"github.com/linesmerrill/police-case-api/api/scheduler"
	"github.com/linesmerrill/police-case-api/config"
	"github.com/linesmerrill/police-case-api/databases"
	"github.com/linesmerrill/police-case-api/gateway"
	"github.com/linesmerrill/police-case-api/notify"
	"github.com/linesmerrill/police-case-api/workflow"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := handlers.App{}
	a.Config = *config.New()
	if a.Config.JWTSecret == "" {
		zap.S().Fatal("JWT_SECRET must be set")
	}

	opts := workflow.Options{
		Metrics: workflow.NewMetrics(prometheus.DefaultRegisterer),
		Logger:  zap.L(),
	}

	var (
		store  workflow.Store
		lockDB databases.LockDatabase
	)
	switch a.Config.Store {
	case "memory":
		zap.S().Warn("using the in-memory store, data is lost on restart")
		store = databases.NewMemoryStore()
		lockDB = databases.NewMemoryLockDatabase()
	default:
		client, err := databases.NewClient(&a.Config)
		if err != nil {
			zap.S().Fatalw("failed to create mongo client", "error", err)
		}
		if err := client.Connect(ctx); err != nil {
			zap.S().Fatalw("failed to connect to mongo", "error", err)
		}
		defer client.Disconnect(context.Background())

		db := databases.NewDatabase(&a.Config, client)
		mongoStore := databases.NewMongoStore(db, databases.NewSessionRunner(client))
		indexCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		if err := mongoStore.EnsureIndexes(indexCtx); err != nil {
			zap.S().Fatalw("failed to ensure indexes", "error", err)
		}
		cancel()
		store = mongoStore
		lockDB = databases.NewLockDatabase(db)
		opts.Evidence = databases.NewEvidenceDatabase(db)
	}

	if a.Config.StripeSecretKey != "" {
		opts.Gateway = gateway.NewStripe(a.Config.StripeSecretKey, a.Config.BaseURL, a.Config.PaymentCurrency)
	}

	a.Hub = notify.NewHub()
	publishers := notify.Fanout{a.Hub}
	if a.Config.SendGridAPIKey != "" {
		publishers = append(publishers, notify.NewMailer(a.Config.SendGridAPIKey, a.Config.MailFrom, a.Config.NotifyEmails, a.Config.BaseURL))
	}
	if len(a.Config.KafkaBrokers) > 0 {
		k, err := notify.NewKafka(a.Config.KafkaBrokers, a.Config.KafkaTopic)
		if err != nil {
			zap.S().Fatalw("failed to create kafka publisher", "error", err)
		}
		defer k.Close()
		publishers = append(publishers, k)
	}
	opts.Publisher = publishers

	a.Engine = workflow.New(store, opts)
	a.Auth = api.NewAuthenticator(ctx, a.Config.JWTSecret, a.Config.ServiceUser, a.Config.ServicePasswordHash)
	a.Metrics = api.NewHTTPMetrics(prometheus.DefaultRegisterer)

	sched := scheduler.NewScheduler(a.Engine, lockDB)
	a.Jobs = sched
	if a.Config.SchedulerEnabled {
		if err := sched.Start(); err != nil {
			zap.S().Fatalw("failed to start scheduler", "error", err)
		}
		defer sched.Stop()
	}

	a.Initialize() //initialize router

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%v", a.Config.Port),
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zap.S().Errorw("graceful shutdown failed", "error", err)
		}
	}()

	zap.S().Infow("police-case-api is up and running",
		"port", a.Config.Port,
		"url", a.Config.BaseURL,
		"store", a.Config.Store,
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zap.S().Fatalw("server stopped", "error", err)
	}
}
