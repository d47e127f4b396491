package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/samandr77/microservices/onboarding/internal/api"
	"github.com/samandr77/microservices/onboarding/internal/api/events"
	"github.com/samandr77/microservices/onboarding/internal/clients/cloudinary"
	"github.com/samandr77/microservices/onboarding/internal/clients/mailer"
	"github.com/samandr77/microservices/onboarding/internal/clients/s3"
	"github.com/samandr77/microservices/onboarding/internal/onboarding"
	"github.com/samandr77/microservices/onboarding/internal/repository"
	"github.com/samandr77/microservices/onboarding/internal/service"
	"github.com/samandr77/microservices/onboarding/internal/token"
	"github.com/samandr77/microservices/onboarding/pkg/broker"
	"github.com/samandr77/microservices/onboarding/pkg/clock"
	"github.com/samandr77/microservices/onboarding/pkg/config"
	"github.com/samandr77/microservices/onboarding/pkg/job"
	"github.com/samandr77/microservices/onboarding/pkg/logger"
	"github.com/samandr77/microservices/onboarding/pkg/postgres"
	"github.com/samandr77/microservices/onboarding/pkg/ratelimit"
	"github.com/samandr77/microservices/onboarding/pkg/security"
)

const (
	ReadTimeout       = 10 * time.Second
	WriteTimeout      = 30 * time.Second
	IdleTimeout       = 60 * time.Second
	ReadHeaderTimeout = 2 * time.Second
)

//nolint:funlen
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.New(".env")
	panicOnErr("load config", err)

	l := logger.New(logger.ParseLevel(cfg.LogLevel))
	slog.SetDefault(l)

	err = postgres.UpMigrations(cfg.PostgresDSN)
	panicOnErr("up migrations", err)

	pool, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.PostgresMaxConns)
	panicOnErr("connect to postgres", err)

	defer pool.Close()

	repo := repository.New(pool)

	var limiter service.Limiter

	if cfg.RedisURL != "" {
		redisClient, err := ratelimit.Connect(ctx, cfg.RedisURL)
		panicOnErr("connect to redis", err)

		defer redisClient.Close()

		limiter = ratelimit.NewFixedWindow(redisClient, "otp", cfg.OTP.ResendLimit, cfg.OTP.ResendWindow)
	} else {
		l.Warn("REDIS_URL is empty, resend rate limiting disabled")
	}

	mail := mailer.New(cfg.Mail)

	var notifier service.Notifier = mail

	if len(cfg.Kafka.Brokers) > 0 {
		producer := broker.NewProducer(l, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()

		notifier = producer
	}

	var uploader service.BlobUploader

	switch cfg.Blob.Provider {
	case config.BlobProviderS3:
		uploader, err = s3.NewClient(ctx, cfg.Blob)
		panicOnErr("create s3 client", err)
	default:
		uploader = cloudinary.NewClient(cfg.Blob)
	}

	clk := clock.System{}

	tokens, err := token.NewManager(cfg.JWT.PrivateKey, cfg.JWT.PublicKey, clk)
	panicOnErr("create token manager", err)

	codes := service.NewVerification(repo, notifier, clk, cfg.OTP)
	machine := onboarding.NewMachine(onboarding.DefaultRegistry(), clk)

	s := service.New(cfg, repo, codes, machine, security.NewBcryptHasher(bcrypt.DefaultCost), tokens, limiter, uploader, clk)

	router := api.NewRouter(api.NewHandler(s), api.NewMiddleware(s))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
		ReadHeaderTimeout: ReadHeaderTimeout,
	}

	if cfg.Kafka.ConsumerEnabled && len(cfg.Kafka.Brokers) > 0 {
		consumer := broker.NewConsumer(l, cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroupID, cfg.Kafka.Topic).
			Handle(cfg.Kafka.Topic, events.NewEventHandler(mail).SendEmail).
			Consume(ctx)
		defer consumer.Close()
	}

	jobs := job.NewService(l).
		RegisterJob("delete_expired_codes", cfg.OTP.CleanupInterval, codes.DeleteExpired)
	jobs.Start(ctx)

	defer jobs.Stop()

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()

		l.Info("http server started", "port", cfg.HTTPPort)

		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Panicf("listen and serve: %s", err)
		}

		l.Debug("http server stopped")
	}()

	waitSignal(l, cancel, server)
	wg.Wait()
}

func waitSignal(l *slog.Logger, cancel context.CancelFunc, server *http.Server) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	sig := <-ch

	l.Info("got OS signal", "signal", sig.String())

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	err := server.Shutdown(shutdownCtx)
	if err != nil {
		l.Error("server shutdown", "error", err)
	}
}

func panicOnErr(msg string, err error) {
	if err != nil {
		log.Panicf("%s: %s", msg, err)
	}
}
