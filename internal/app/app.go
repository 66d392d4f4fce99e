package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"

	"membership-app-go/internal/auth"
	"membership-app-go/internal/config"
	"membership-app-go/internal/db"
	auditdomain "membership-app-go/internal/domain/audit"
	billingdomain "membership-app-go/internal/domain/billing"
	dashboarddomain "membership-app-go/internal/domain/dashboard"
	locationdomain "membership-app-go/internal/domain/location"
	membershipdomain "membership-app-go/internal/domain/membership"
	notificationdomain "membership-app-go/internal/domain/notification"
	"membership-app-go/internal/domain/sequence"
	settingdomain "membership-app-go/internal/domain/setting"
	userdomain "membership-app-go/internal/domain/user"
	"membership-app-go/internal/metrics"
	"membership-app-go/internal/repository/inmemory"
	auditrepo "membership-app-go/internal/repository/postgres/audit"
	billingrepo "membership-app-go/internal/repository/postgres/billing"
	dashboardrepo "membership-app-go/internal/repository/postgres/dashboard"
	locationrepo "membership-app-go/internal/repository/postgres/location"
	membershiprepo "membership-app-go/internal/repository/postgres/membership"
	notificationrepo "membership-app-go/internal/repository/postgres/notification"
	settingrepo "membership-app-go/internal/repository/postgres/setting"
	userrepo "membership-app-go/internal/repository/postgres/user"
	redisrepo "membership-app-go/internal/repository/redis"
	"membership-app-go/internal/storage"
	"membership-app-go/internal/transport/httpserver"
	"membership-app-go/internal/transport/httpserver/handler"
	adminhandler "membership-app-go/internal/transport/httpserver/handler/admin"
	commonhandler "membership-app-go/internal/transport/httpserver/handler/common"
	membershandler "membership-app-go/internal/transport/httpserver/handler/members"
	paymentshandler "membership-app-go/internal/transport/httpserver/handler/payments"
	authmw "membership-app-go/internal/transport/httpserver/middleware"
	"membership-app-go/pkg/logger"
)

const redisConnectTimeout = 5 * time.Second

type App struct {
	cfg        config.Config
	httpServer *http.Server
	db         *gorm.DB
	redis      *redisrepo.Client
	log        logger.Logger
}

func New(log logger.Logger) (*App, error) {
	log.Info("app: loading config")
	cfg, err := config.Load(log)
	if err != nil {
		return nil, err
	}

	log.Info("app: initializing database")
	dbConn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		return nil, err
	}
	application := &App{cfg: cfg, db: dbConn, log: log}

	if cfg.DB.AutoMigrate {
		log.Info("app: applying migrations")
		if err := db.Migrate(dbConn, log); err != nil {
			_ = application.Close()
			return nil, err
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	observer := metrics.New(registry)

	checks := map[string]commonhandler.HealthChecker{"postgres": db.NewHealthChecker(dbConn)}

	var (
		cache       dashboarddomain.Cache
		revocations auth.Revocations
	)
	ctx, cancel := context.WithTimeout(context.Background(), redisConnectTimeout)
	redisClient, err := redisrepo.New(ctx, cfg.Redis)
	cancel()
	if err != nil {
		_ = application.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}
	if redisClient != nil {
		log.Info("app: using redis for dashboard cache and token revocation")
		application.redis = redisClient
		cache = redisrepo.NewCache(redisClient.Client)
		revocations = redisrepo.NewRevocations(redisClient.Client)
		checks["redis"] = redisClient
	} else {
		log.Warn("app: REDIS_URL not set, using in-memory cache and token revocation")
		cache = inmemory.NewCache()
		revocations = auth.NewMemoryRevocations()
	}

	files, err := storage.NewLocal(cfg.Uploads.Dir)
	if err != nil {
		_ = application.Close()
		return nil, fmt.Errorf("uploads storage: %w", err)
	}

	tokens, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL)
	if err != nil {
		_ = application.Close()
		return nil, err
	}

	log.Info("app: initializing services")
	allocator := sequence.NewAllocator(
		sequence.WithMembershipPrefix(cfg.Membership.IDPrefix),
		sequence.WithObserver(observer),
	)

	paymentService := billingdomain.NewService(
		billingrepo.NewPostgres(dbConn, cfg.DB.LockTimeout),
		allocator,
		billingdomain.WithObserver(observer),
		billingdomain.WithDefaultCurrency(cfg.Membership.DefaultCurrency),
		billingdomain.WithPhoneRegion(cfg.Membership.PhoneRegion),
	)
	memberService := membershipdomain.NewService(
		membershiprepo.NewPostgres(dbConn, cfg.DB.LockTimeout),
		allocator,
		paymentService,
		membershipdomain.WithObserver(observer),
		membershipdomain.WithStorage(files),
		membershipdomain.WithMaxDocumentBytes(cfg.Uploads.MaxBytes),
		membershipdomain.WithPhoneRegion(cfg.Membership.PhoneRegion),
	)
	userService := userdomain.NewService(
		userrepo.NewPostgres(dbConn),
		userdomain.WithBcryptCost(cfg.Auth.BcryptCost),
		userdomain.WithPhoneRegion(cfg.Membership.PhoneRegion),
	)
	locationService := locationdomain.NewService(locationrepo.NewPostgres(dbConn))
	settingService := settingdomain.NewService(settingrepo.NewPostgres(dbConn))
	auditService := auditdomain.NewService(auditrepo.NewPostgres(dbConn))
	notificationService := notificationdomain.NewService(notificationrepo.NewPostgres(dbConn))
	dashboardService := dashboarddomain.NewService(
		dashboardrepo.NewPostgres(dbConn),
		dashboarddomain.WithCache(cache, cfg.Dashboard.CacheTTL),
		dashboarddomain.WithLogger(log),
	)

	log.Info("app: initializing router")
	handlers := handler.New(
		commonhandler.New(userService, notificationService, tokens, revocations, checks, log),
		membershandler.New(memberService, paymentService, dashboardService, cfg.Uploads.MaxBytes, log),
		paymentshandler.New(paymentService, memberService, dashboardService, log),
		adminhandler.New(userService, memberService, locationService, settingService, auditService, dashboardService, log),
	)
	jwtAuth := authmw.NewJWTAuth(cfg.Auth, tokens, revocations, userService, log)
	if cfg.Auth.SkipAuth {
		log.Warn("app: authentication disabled, requests run as the mock user", "user_id", cfg.Auth.MockUserID)
	}
	router := httpserver.NewRouter(cfg, handlers, jwtAuth, registry)

	log.Info("app: initializing http server")
	application.httpServer = httpserver.New(cfg, router)
	return application, nil
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

// Run serves until ctx is cancelled or the listener fails, then drains
// in-flight requests within the shutdown timeout and releases resources.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)
	go func() {
		a.log.Info("http: listening", "addr", a.httpServer.Addr)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("app: shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		runErr = errors.Join(runErr, fmt.Errorf("graceful shutdown: %w", err))
	}
	if err := a.Close(); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("close: %w", err))
	}
	return runErr
}

func (a *App) Close() error {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Error("app: redis close failed", "err", err)
		}
	}
	if a.db == nil {
		return nil
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
