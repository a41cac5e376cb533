package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "github.com/noah-isme/wisdom-gateway/api/swagger"
	"github.com/noah-isme/wisdom-gateway/internal/handler"
	"github.com/noah-isme/wisdom-gateway/internal/middleware"
	"github.com/noah-isme/wisdom-gateway/internal/repository"
	"github.com/noah-isme/wisdom-gateway/internal/service"
	"github.com/noah-isme/wisdom-gateway/internal/service/reconcile"
	"github.com/noah-isme/wisdom-gateway/pkg/apiclient"
	"github.com/noah-isme/wisdom-gateway/pkg/cache"
	"github.com/noah-isme/wisdom-gateway/pkg/config"
	"github.com/noah-isme/wisdom-gateway/pkg/devauth"
	"github.com/noah-isme/wisdom-gateway/pkg/events"
	"github.com/noah-isme/wisdom-gateway/pkg/export"
	"github.com/noah-isme/wisdom-gateway/pkg/firebase"
	"github.com/noah-isme/wisdom-gateway/pkg/logger"
)

const (
	registryCapacity = 512
	limiterSweep     = 5 * time.Minute
	shutdownTimeout  = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gateway HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return cache.Ping(ctx, p.client)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, falling back to in-process state", zap.Error(err))
	}

	metricsSvc := service.NewMetricsService()

	client, err := apiclient.New(apiclient.Config{
		BaseURL:  cfg.Backend.BaseURL,
		Timeout:  cfg.Backend.Timeout,
		Logger:   logr.Named("upstream"),
		Observer: metricsSvc,
	})
	if err != nil {
		return err
	}

	users := repository.NewUserRepository(client)
	lessons := repository.NewLessonRepository(client)
	favorites := repository.NewFavoriteRepository(client)
	reports := repository.NewReportRepository(client)
	contributors := repository.NewContributorRepository(client)
	likes := repository.NewLikeRepository(client)
	payments := repository.NewPaymentRepository(client)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	snapshots := service.NewViewSnapshots(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, redisClient != nil)
	profiles := service.NewProfileStore(users, cfg.Views.ProfileCacheTTL, logr)

	provider, err := newIdentityProvider(ctx, cfg)
	if err != nil {
		return err
	}
	validate := validator.New()
	identity := service.NewIdentityService(provider, users, profiles, validate, logr)

	localBus := events.NewLocalBus(events.LocalConfig{
		Workers:    cfg.Events.Workers,
		MaxRetries: cfg.Events.MaxRetries,
		RetryDelay: cfg.Events.RetryDelay,
		Logger:     logr.Named("events"),
	})
	localBus.Start(ctx)
	defer localBus.Stop()

	var bus events.Bus = localBus
	if redisClient != nil {
		redisBus := events.NewRedisBus(redisClient, localBus, logr.Named("events"))
		go func() {
			if err := redisBus.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logr.Warn("event relay stopped", zap.Error(err))
			}
		}()
		bus = redisBus
	}
	unsubscribe := bus.Subscribe(events.TopicPremiumUpdated, profiles.HandlePremiumUpdated)
	defer unsubscribe()

	viewCfg := service.ViewConfig{Timeout: cfg.Views.Timeout}
	registry := reconcile.NewRegistry(registryCapacity)
	runner := reconcile.NewRunner(logr.Named("reconcile"), metricsSvc)

	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Users:        users,
		Lessons:      lessons,
		Reports:      reports,
		Contributors: contributors,
		Favorites:    favorites,
		Likes:        likes,
		Snapshots:    snapshots,
		Metrics:      metricsSvc,
		Logger:       logr,
		Config:       service.DashboardServiceConfig{SnapshotTTL: cfg.Dashboard.CacheTTL, View: viewCfg},
	})
	stopWatching := dashboardSvc.WatchProfiles(profiles)
	defer stopWatching()

	catalogSvc := service.NewCatalogService(lessons, contributors, profiles, metricsSvc, logr, viewCfg)
	lessonSvc := service.NewLessonService(service.LessonServiceParams{
		Lessons:   lessons,
		Favorites: favorites,
		Profiles:  profiles,
		Registry:  registry,
		Runner:    runner,
		Dashboard: dashboardSvc,
		Validator: validate,
		Metrics:   metricsSvc,
		Logger:    logr,
		Config:    viewCfg,
	})
	favoriteSvc := service.NewFavoriteService(favorites, registry, runner, dashboardSvc, metricsSvc, logr, viewCfg)
	profileSvc := service.NewProfileService(service.ProfileServiceParams{
		Profiles:  profiles,
		Lessons:   lessons,
		Favorites: favorites,
		Identity:  identity,
		Runner:    runner,
		Dashboard: dashboardSvc,
		Metrics:   metricsSvc,
		Logger:    logr,
		Config:    viewCfg,
	})
	paymentSvc := service.NewPaymentService(service.PaymentServiceParams{
		Payments: payments,
		Users:    users,
		Profiles: profiles,
		Guard:    service.NewOneShotGuard(cacheRepo, cfg.Payment.GuardTTL, logr),
		Bus:      bus,
		Runner:   runner,
		Logger:   logr,
	})
	moderationSvc := service.NewModerationService(lessons, registry, runner, dashboardSvc, metricsSvc, logr, viewCfg)
	userAdminSvc := service.NewUserAdminService(service.UserAdminServiceParams{
		Users:     users,
		Lessons:   lessons,
		Registry:  registry,
		Runner:    runner,
		Dashboard: dashboardSvc,
		Profiles:  profiles,
		CSV:       export.NewCSVExporter(),
		Metrics:   metricsSvc,
		Logger:    logr,
		Config:    viewCfg,
	})
	reportSvc := service.NewReportService(service.ReportServiceParams{
		Reports:   reports,
		Lessons:   lessons,
		Registry:  registry,
		Runner:    runner,
		Dashboard: dashboardSvc,
		PDF:       export.NewPDFExporter(),
		Metrics:   metricsSvc,
		Logger:    logr,
		Config:    viewCfg,
	})

	limiter := middleware.NewLimiterStore(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst, limiterSweep)
	defer limiter.Stop()

	var pinger handler.Pinger
	if redisClient != nil {
		pinger = redisPinger{client: redisClient}
	}

	cookieName := cfg.Identity.SessionCookieName
	router := handler.NewRouter(handler.RouterDeps{
		Logger:         logr,
		Metrics:        metricsSvc,
		Sessions:       identity,
		CookieName:     cookieName,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		APIPrefix:      cfg.APIPrefix,
		EnableDocs:     cfg.Env != config.EnvProduction,
		Limiter:        limiter,
		Auth:           handler.NewAuthHandler(identity, handler.CookieConfig{Name: cookieName, Secure: cfg.Env == config.EnvProduction}),
		Catalog:        handler.NewCatalogHandler(catalogSvc),
		Dashboard:      handler.NewDashboardHandler(dashboardSvc),
		Lessons:        handler.NewLessonHandler(lessonSvc),
		Favorites:      handler.NewFavoriteHandler(favoriteSvc),
		Profile:        handler.NewProfileHandler(profileSvc),
		Payment:        handler.NewPaymentHandler(paymentSvc),
		Moderation:     handler.NewModerationHandler(moderationSvc),
		Users:          handler.NewUserAdminHandler(userAdminSvc),
		Reports:        handler.NewReportHandler(reportSvc),
		Ops:            handler.NewMetricsHandler(metricsSvc, pinger),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "identity", cfg.Identity.Provider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-sigCh:
		logr.Info("shutting down")
	case err := <-serveErr:
		logr.Error("server failed", zap.Error(err))
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := localBus.Drain(shutdownCtx); err != nil {
		logr.Warn("event queue not drained", zap.Error(err))
	}
	cancel()
	if err := cacheRepo.Close(); err != nil {
		logr.Warn("close redis", zap.Error(err))
	}
	return nil
}

func newIdentityProvider(ctx context.Context, cfg *config.Config) (service.IdentityProvider, error) {
	switch cfg.Identity.Provider {
	case config.IdentityFirebase:
		return firebase.New(ctx, cfg.Identity)
	case config.IdentityDev, "":
		if cfg.Env == config.EnvProduction {
			return nil, fmt.Errorf("identity provider %q is not allowed in production", config.IdentityDev)
		}
		return devauth.New(devauth.Config{
			Secret:     cfg.JWT.Secret,
			Issuer:     cfg.JWT.Issuer,
			Expiration: cfg.JWT.Expiration,
		})
	}
	return nil, fmt.Errorf("unknown identity provider %q", cfg.Identity.Provider)
}
