package paywall

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/content-paywall/internal/cache"
	"github.com/magabrotheeeer/content-paywall/internal/config"
	"github.com/magabrotheeeer/content-paywall/internal/http/middlewarectx"
	"github.com/magabrotheeeer/content-paywall/internal/http/session"
	"github.com/magabrotheeeer/content-paywall/internal/lib/jwt"
	"github.com/magabrotheeeer/content-paywall/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/content-paywall/internal/lib/sl"
	"github.com/magabrotheeeer/content-paywall/internal/metrics"
	"github.com/magabrotheeeer/content-paywall/internal/migrations"
	"github.com/magabrotheeeer/content-paywall/internal/paymentprovider"
	"github.com/magabrotheeeer/content-paywall/internal/services/access"
	adminservice "github.com/magabrotheeeer/content-paywall/internal/services/admin"
	authservice "github.com/magabrotheeeer/content-paywall/internal/services/auth"
	contentservice "github.com/magabrotheeeer/content-paywall/internal/services/content"
	subservice "github.com/magabrotheeeer/content-paywall/internal/services/subscription"
	"github.com/magabrotheeeer/content-paywall/internal/storage"
)

const shutdownTimeout = 15 * time.Second

// App HTTP-приложение платформы.
type App struct {
	server *http.Server
	health *healthServer
	logger *slog.Logger
	db     *storage.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New собирает приложение. База, redis и rabbitmq необязательны:
// без них сервис работает в деградированном режиме.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{logger: logger}

	a.db = storage.New(logger, cfg.StorageConnectionString)
	if a.db.Configured() {
		if err := a.db.WaitReady(ctx, 10, time.Second); err != nil {
			return nil, err
		}
		if cfg.MigrationsEnabled {
			sqlDB, err := a.db.DB(ctx)
			if err != nil {
				return nil, err
			}
			if err = migrations.Run(sqlDB); err != nil {
				return nil, err
			}
		}
	} else {
		logger.Warn("database is not configured, running in degraded mode")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	subOpts := subservice.Options{
		Metrics:     m,
		ProductName: cfg.ProductName,
	}

	if cfg.AddressRedis != "" {
		c, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			a.close()
			return nil, err
		}
		a.cache = c
		subOpts.Cache = c
	}

	if cfg.RabbitMQURL != "" {
		conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
		}
		a.conn = conn
		ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
		}
		a.ch = ch
		subOpts.Publisher = rabbitmq.NewPublisher(ch)
	}

	authService, err := authservice.NewAuthService(a.db, jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL), logger)
	if err != nil {
		a.close()
		return nil, err
	}
	accessService := access.New(a.db, logger, m)

	services := Services{
		Auth:         authService,
		Content:      contentservice.NewContentService(a.db, accessService, logger),
		Subscription: subservice.NewSubscriptionService(a.db, paymentprovider.NewClient(cfg.MercadoPago), logger, subOpts),
		Admin:        adminservice.NewAdminService(a.db, logger),
		Health:       a.db,
		Cookies:      session.NewCookies(cfg.SessionCookie, cfg.TokenTTL),
		Limiter:      middlewarectx.NewRateLimiter(cfg.RequestsPerSecond, cfg.Burst),
		Metrics:      m,
		Gatherer:     reg,
	}
	if cfg.WebhookSecret != "" {
		services.Verifier = paymentprovider.NewSignatureVerifier(cfg.WebhookSecret, cfg.WebhookMaxAge)
	} else {
		logger.Warn("webhook secret is not configured, signatures are not verified")
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, services)

	a.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	if cfg.GRPCHealthAddress != "" {
		a.health, err = newHealthServer(cfg.GRPCHealthAddress, a.db, logger)
		if err != nil {
			a.close()
			return nil, err
		}
	}

	return a, nil
}

// Run обслуживает запросы до отмены ctx, затем плавно останавливается.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()
	if a.health != nil {
		go func() {
			errCh <- a.health.Serve(ctx)
		}()
	}

	var runErr error
	select {
	case runErr = <-errCh:
	case <-ctx.Done():
	}

	timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.logger.Info("shutting down HTTP server gracefully")
	if err := a.server.Shutdown(timeoutCtx); err != nil && runErr == nil {
		runErr = err
	}
	if a.health != nil {
		a.health.Stop()
	}
	a.close()
	return runErr
}

func (a *App) close() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}
