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

	"autodialer/internal/auth"
	"autodialer/internal/config"
	"autodialer/internal/dialer"
	"autodialer/internal/httpapi"
	"autodialer/internal/leads"
	"autodialer/internal/queue"
	"autodialer/internal/reporting"
	"autodialer/internal/telephony"
	"autodialer/internal/voicemail"
	"autodialer/pkg/logger"
	"autodialer/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

const sessionLockKey = "autodialer:session_lock"

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Local development convenience; absent .env is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	provider, err := telephony.NewTwilioProvider(telephony.TwilioOptions{
		AccountSID: cfg.Twilio.AccountSID,
		AuthToken:  cfg.Twilio.AuthToken,
	})
	if err != nil {
		log.Error("twilio init failed", "err", err)
		os.Exit(1)
	}

	directory := leads.NewSQLDirectory(db)
	queueStore := queue.NewSQLStore(db)
	callLogs := reporting.NewSQLRepo(db)
	sessionStore := dialer.NewSQLStore(db)

	resolver := voicemail.NewResolver(voicemail.NewSQLRepo(db))
	dispatcher := dialer.NewDispatcher(provider, resolver, cfg.Twilio.CallerID, cfg.Dialer.CallTimeout, log)
	processor := dialer.NewProcessor(sessionStore, cfg.Dialer.RetryCooldown)

	// The lock TTL needs headroom over one full call plus pacing so a live
	// loop never loses ownership between refreshes.
	lockTTL := cfg.Dialer.CallTimeout + 5*time.Minute
	locker := dialer.NewRedisLocker(rdb, sessionLockKey, lockTTL)

	controller := dialer.NewController(sessionStore, queueStore, directory, dispatcher, processor, locker, dialer.Options{
		SalespersonName: cfg.Dealership.SalespersonName,
		DealershipName:  cfg.Dealership.Name,
		CallbackNumber:  cfg.Twilio.CallerID,
		TickRetryDelay:  cfg.Dialer.TickRetryDelay,
	}, log)

	reports := reporting.NewService(callLogs)

	h := httpapi.Handlers{
		Auth:                 authManager,
		Controller:           controller,
		Queue:                queue.NewService(queueStore, directory, log),
		Reports:              reports,
		DefaultPacingSeconds: cfg.Dialer.DefaultPacingSeconds,
	}

	statusWebhook := telephony.TwilioStatusWebhookHandler{
		Sink:   reports,
		Secret: cfg.Twilio.StatusWebhookSecret,
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, h, statusWebhook, auth.RequireAccessToken(authManager))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	// Pause an active loop so a restarted process can resume it.
	if err := controller.Shutdown(shutdownCtx); err != nil {
		log.Error("dialer shutdown failed", "err", err)
	}
}
