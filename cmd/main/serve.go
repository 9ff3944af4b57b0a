package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/clinic-case-service/internal/auth"
	"gitlab.com/timkado/api/clinic-case-service/internal/cache"
	"gitlab.com/timkado/api/clinic-case-service/internal/config"
	"gitlab.com/timkado/api/clinic-case-service/internal/healthcheck"
	"gitlab.com/timkado/api/clinic-case-service/internal/httpapi"
	"gitlab.com/timkado/api/clinic-case-service/internal/ingestion"
	"gitlab.com/timkado/api/clinic-case-service/internal/jetstream"
	"gitlab.com/timkado/api/clinic-case-service/internal/mediastore"
	"gitlab.com/timkado/api/clinic-case-service/internal/qrcode"
	"gitlab.com/timkado/api/clinic-case-service/internal/storage"
	"gitlab.com/timkado/api/clinic-case-service/internal/usecase"
	"gitlab.com/timkado/api/clinic-case-service/internal/whatsapp"
	"gitlab.com/timkado/api/clinic-case-service/pkg/logger"
	"gitlab.com/timkado/api/clinic-case-service/pkg/utils"
)

const (
	shutdownTimeout = 30 * time.Second
	startupTimeout  = 15 * time.Second
)

// redisPinger adapts a redis client to healthcheck.Pinger.
type redisPinger struct {
	rdb *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.rdb.Ping(ctx).Err()
}

// infra holds the long-lived connections, so they can be closed on shutdown.
type infra struct {
	repos    *storage.Repositories
	redis    *redis.Client
	nats     *jetstream.Client
	media    mediastore.Store
	events   jetstream.EventPublisher
	whatsapp *whatsapp.Client
	notifier *usecase.NotificationWorker
}

func runServe(configPath string) error {
	cfg, err := bootstrap(configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()

	log := logger.Log
	log.Info("Starting clinic case service",
		zap.String("environment", cfg.Environment),
		zap.Int("port", cfg.Server.Port),
		zap.Int("ops_port", cfg.Server.OpsPort),
		zap.Bool("redis_enabled", cfg.Redis.Enabled),
		zap.Bool("nats_enabled", cfg.NATS.Enabled),
		zap.String("media_backend", cfg.Media.Backend),
	)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), startupTimeout)
	defer startupCancel()

	deps, err := connect(startupCtx, cfg, log)
	if err != nil {
		return err
	}

	var limiterClient redis.Cmdable
	if deps.redis != nil {
		limiterClient = deps.redis
	}
	tokens := auth.NewTokenManager(cfg.JWT)
	services := buildServices(cfg, deps, tokens, cache.NewSessionStore(limiterClient))

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	uploadsDir := ""
	if local, ok := deps.media.(*mediastore.LocalStore); ok {
		uploadsDir = local.Dir()
	}
	router := httpapi.NewRouter(services, httpapi.RouterOptions{
		Tokens:      tokens,
		Limiter:     cache.NewRateLimiter(limiterClient, cfg.RateLimit),
		CORSOrigins: cfg.Server.CORSOrigins,
		VerifyToken: cfg.WhatsApp.VerifyToken,
		UploadsDir:  uploadsDir,
	})

	checks := map[string]healthcheck.Pinger{"postgres": deps.repos}
	if deps.redis != nil {
		checks["redis"] = redisPinger{rdb: deps.redis}
	}
	opsServer := healthcheck.NewServer(cfg.Server.OpsPort, log, checks)
	if cfg.Metrics.Enabled {
		opsServer.RegisterMetricsHandler(promhttp.Handler())
		log.Info("Metrics endpoint enabled", zap.String("path", "/metrics"), zap.Int("port", cfg.Server.OpsPort))
	} else {
		log.Info("Metrics endpoint disabled", zap.String("environment", cfg.Environment))
	}
	opsServer.Start()

	sigChan := make(chan os.Signal, 1)
	apiServer := httpapi.NewServer(cfg.Server.Port, router, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, log)
	apiServer.Start(func(err error) {
		log.Error("API server failed, initiating shutdown...", zap.Error(err))
		select {
		case sigChan <- syscall.SIGTERM:
		default:
			log.Warn("Could not send SIGTERM to signal channel immediately")
		}
	})

	log.Info("Endpoints available",
		zap.String("api", fmt.Sprintf("http://localhost:%d/api/v1", cfg.Server.Port)),
		zap.String("health", fmt.Sprintf("http://localhost:%d/health", cfg.Server.OpsPort)),
		zap.String("readiness", fmt.Sprintf("http://localhost:%d/ready", cfg.Server.OpsPort)),
	)

	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("Received termination signal", zap.String("signal", sig.String()))

	shutdown(log, apiServer, opsServer, deps)
	log.Info("Clinic case service shutdown complete")
	return nil
}

// connect opens every backing service. Redis and NATS are optional: a
// failure there is logged and the feature degrades.
func connect(ctx context.Context, cfg *config.Config, log *zap.Logger) (*infra, error) {
	deps := &infra{events: jetstream.NopPublisher{}}

	postgresRepo, err := storage.NewPostgresRepo(cfg.Database.PostgresDSN, cfg.Database.PostgresAutoMigrate)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres repository: %w", err)
	}
	deps.repos = storage.NewRepositories(postgresRepo)
	log.Info("Initialized PostgreSQL repository")

	if cfg.Redis.Enabled {
		rdb, err := cache.ConnectFromConfig(ctx, cfg, log)
		if err != nil {
			log.Warn("Redis unavailable, rate limiting and session mirroring disabled", zap.Error(err))
		} else {
			deps.redis = rdb
		}
	}

	if cfg.NATS.Enabled {
		client, err := jetstream.NewClient(cfg.NATS.URL)
		if err != nil {
			log.Warn("NATS unavailable, domain events disabled", zap.Error(err))
		} else {
			publisher := jetstream.NewPublisher(client, cfg.NATS.StreamName, log)
			if err := publisher.EnsureStream(ctx); err != nil {
				log.Warn("Failed to ensure event stream, domain events disabled", zap.Error(err))
				client.Close()
			} else {
				deps.nats = client
				deps.events = publisher
			}
		}
	}

	deps.media, err = mediastore.New(ctx, cfg.Media, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize media store: %w", err)
	}

	deps.whatsapp = whatsapp.NewClient(cfg.WhatsApp, log)
	deps.notifier, err = usecase.NewNotificationWorker(cfg.WorkerPools.Notification, deps.whatsapp, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize notification worker pool: %w", err)
	}
	return deps, nil
}

func buildServices(cfg *config.Config, deps *infra, tokens *auth.TokenManager, sessions usecase.SessionCache) httpapi.Services {
	repos := deps.repos
	generator := qrcode.NewGenerator(cfg.WhatsApp.Number)

	cases := usecase.NewCaseService(repos.Cases, repos.QRCodes, repos.Doctors, deps.notifier, deps.events,
		usecase.CaseNotifyConfig{SupportTeamPhone: cfg.WhatsApp.SupportTeamPhone})

	webhooks := usecase.NewWebhookService(repos.Patients, repos.Franchises, repos.Cases, repos.Messages,
		deps.notifier, deps.events, usecase.IntakeTemplateConfig{
			TemplateName:     cfg.WhatsApp.TemplateName,
			TemplateImageURL: cfg.WhatsApp.TemplateImageURL,
			FrontendBaseURL:  cfg.Frontend.BaseURL,
		})
	webhookRouter := ingestion.NewRouter()
	webhooks.RegisterRoutes(webhookRouter)

	return httpapi.Services{
		Auth:       usecase.NewAuthService(repos.Users, repos.Tokens, tokens, sessions),
		Users:      usecase.NewUserService(repos.Users),
		Franchises: usecase.NewFranchiseService(repos.Franchises, generator),
		QRCodes:    usecase.NewQRCodeService(repos.QRCodes, repos.Franchises, generator),
		Doctors:    usecase.NewDoctorService(repos.Doctors, repos.Users),
		Patients: usecase.NewPatientService(repos.Patients, repos.Franchises, repos.Cases, repos.TreatmentPlans,
			cases, deps.notifier, deps.events),
		Cases:          cases,
		TreatmentPlans: usecase.NewTreatmentPlanService(repos.TreatmentPlans, repos.Cases),
		Media:          usecase.NewMediaService(repos.Media, deps.media, cfg.Media.MaxUploadMB),
		Messaging:      usecase.NewMessagingService(deps.whatsapp, repos.Messages, cfg.WhatsApp.Number),
		Dashboard:      usecase.NewDashboardService(repos.Dashboard),
		Webhooks:       webhookRouter,
	}
}

// shutdown stops the servers, drains the notification pool and closes every
// connection within shutdownTimeout.
func shutdown(log *zap.Logger, apiServer *httpapi.Server, opsServer *healthcheck.Server, deps *infra) {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	log.Info("Starting graceful shutdown", zap.Duration("timeout", shutdownTimeout))

	var wg sync.WaitGroup
	step := func(name string, fn func() error) {
		wg.Add(1)
		utils.SafeGo(func() {
			defer wg.Done()
			log.Info("[shutdown] Stopping " + name)
			start := time.Now()
			if err := fn(); err != nil {
				log.Error("[shutdown] Error stopping "+name, zap.Error(err))
				return
			}
			log.Info("[shutdown] Stopped "+name, zap.Duration("duration", time.Since(start)))
		}, func(r interface{}, stack []byte) {
			log.Error("[shutdown] Panic while stopping "+name,
				zap.Any("panic", r),
				zap.ByteString("stack", stack),
			)
		})
	}

	// The API server goes first so no new notifications are queued while the
	// pool drains.
	serversDone := make(chan struct{})
	step("API server", func() error {
		defer close(serversDone)
		return apiServer.Stop(shutdownCtx)
	})
	step("ops server", func() error { return opsServer.Stop(shutdownCtx) })

	step("notification worker pool and connections", func() error {
		select {
		case <-serversDone:
		case <-shutdownCtx.Done():
		}
		deps.notifier.Stop()

		if deps.nats != nil {
			deps.nats.Close()
		}
		if deps.redis != nil {
			if err := deps.redis.Close(); err != nil {
				log.Warn("[shutdown] Failed to close redis client", zap.Error(err))
			}
		}
		if err := deps.media.Close(); err != nil {
			log.Warn("[shutdown] Failed to close media store", zap.Error(err))
		}
		return deps.repos.Close(shutdownCtx)
	})

	waitCh := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		log.Info("[shutdown] All components stopped gracefully")
	case <-shutdownCtx.Done():
		log.Warn("[shutdown] Graceful shutdown timed out, forcing exit")
	}
}
