package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"callgate/internal/audit"
	"callgate/internal/auth"
	"callgate/internal/config"
	"callgate/internal/httpapi"
	"callgate/internal/location"
	"callgate/internal/monitor"
	"callgate/internal/oauth"
	"callgate/internal/store"
	"callgate/internal/webex"
	"callgate/pkg/logger"
	"callgate/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	sessions, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
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

	st := store.New(db)
	if err := st.EnsureSchema(rootCtx); err != nil {
		log.Error("schema init failed", "err", err)
		os.Exit(1)
	}

	auditRepo := audit.NewPostgresRepo(db)
	if err := auditRepo.EnsureSchema(rootCtx); err != nil {
		log.Error("audit schema init failed", "err", err)
		os.Exit(1)
	}
	audits := audit.NewService(auditRepo)

	samples := store.NewCachedSamples(st, rdb, cfg.Geofence.SampleTimeout, log)
	bounds := location.BoundsFromConfig(cfg.Geofence)
	oracle := location.NewOracle(st, samples, cfg.Geofence.SampleTimeout, log)
	reports := location.NewService(st, st, samples, bounds, log)

	sweeper := location.NewSweeper(st, cfg.Geofence.SampleTimeout, cfg.Geofence.SweepInterval, log)
	go sweeper.Run(rootCtx)

	states := oauth.NewRedisStateStore(rdb, 0)
	userFlow := oauth.NewFlow(cfg.OAuth, cfg.UserRedirectURI(), states)
	adminFlow := oauth.NewFlow(cfg.OAuth, cfg.AdminRedirectURI(), states)

	// The monitor outlives the request that starts it, so it runs on the
	// root context. One monitoring session at a time.
	var monitoring atomic.Bool
	startMonitoring := func(ctx context.Context, accessToken string) (int, error) {
		if !monitoring.CompareAndSwap(false, true) {
			return 0, httpapi.ErrMonitorRunning
		}
		api := webex.NewClient(cfg.Webex.APIBaseURL, accessToken)
		xsi := webex.NewXSI(cfg.Webex, accessToken, log)
		m := monitor.New(
			webex.NewOrgRoster(api, xsi, log),
			webex.NewEventChannel(xsi),
			oracle,
			log,
		)
		if err := m.Start(rootCtx); err != nil {
			monitoring.Store(false)
			return 0, err
		}
		return m.MonitoredUsers(), nil
	}

	identity := func(ctx context.Context, accessToken string) (webex.Me, error) {
		return webex.NewClient(cfg.Webex.APIBaseURL, accessToken).GetMe(ctx)
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, httpapi.Handlers{
		Sessions:        sessions,
		UserFlow:        userFlow,
		AdminFlow:       adminFlow,
		Tokens:          st,
		Users:           st,
		Location:        reports,
		Audit:           audits,
		AdminUserID:     cfg.OAuth.AdminUserID,
		SecureCookies:   cfg.IsProduction(),
		AdminSessionTTL: cfg.Auth.AdminSessionTTL,
		UserSessionTTL:  cfg.Auth.UserSessionTTL,
		Identity:        identity,
		StartMonitoring: startMonitoring,
	}, sessions)

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
}
