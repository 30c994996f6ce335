// cmd/notification-manager/main.go
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

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"franchise-notifications/internal/api"
	"franchise-notifications/internal/common/auth"
	awsclients "franchise-notifications/internal/common/aws"
	"franchise-notifications/internal/common/camunda"
	"franchise-notifications/internal/common/config"
	"franchise-notifications/internal/common/database"
	"franchise-notifications/internal/common/logger"
	"franchise-notifications/internal/common/observability"
	"franchise-notifications/internal/models"
	"franchise-notifications/internal/notification/channel"
	"franchise-notifications/internal/notification/directory"
	"franchise-notifications/internal/notification/recipients"
	"franchise-notifications/internal/notification/service"
	"franchise-notifications/internal/notification/store"
	createnotification "franchise-notifications/internal/workers/notification/create-notification"
	marknotificationsread "franchise-notifications/internal/workers/notification/mark-notifications-read"
)

const (
	workerCreateNotification = "create-notification"
	workerMarkRead           = "mark-notifications-read"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	configPath := pflag.StringP("config", "c", "", "path to a config file (defaults to configs/config.yaml)")
	migrateOnly := pflag.Bool("migrate", false, "apply database migrations and exit")
	pflag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting notification manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	ctx := context.Background()

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Database.Postgres.AutoMigrate || *migrateOnly {
		if err := pg.Migrate(); err != nil {
			zapLog.Fatal("migrations failed", zap.Error(err))
		}
		zapLog.Info("Migrations applied")
	}
	if *migrateOnly {
		return
	}

	// --- Redis ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()

	obs := observability.New(cfg.Observability.ServiceName, cfg.Observability.JaegerEndpoint, log)

	checks := map[string]api.ReadinessCheck{
		"postgres": pg.Ping,
		"redis":    rdb.Ping,
	}

	// --- Directory and recipients ---
	n := cfg.Notifications
	dir := directory.NewCachedDirectory(
		directory.NewPostgresDirectory(pg.DB),
		rdb.Client,
		n.FranchiseNameCacheTTLDuration(),
		log,
	)
	resolver := recipients.NewResolver(dir, n.DefaultAdminEmails, log)

	registry, err := channel.NewRegistry()
	if err != nil {
		zapLog.Fatal("channel registry", zap.Error(err))
	}

	if n.Email.Enabled {
		transport, err := newEmailTransport(ctx, cfg)
		if err != nil {
			zapLog.Fatal("email transport", zap.Error(err))
		}
		renderer, err := channel.NewRenderer(n.Brand, n.AppURL)
		if err != nil {
			zapLog.Fatal("email renderer", zap.Error(err))
		}
		mustRegister(registry, channel.NewEmailChannel(resolver, transport, renderer, log), zapLog)
	}

	if n.SMS.Enabled {
		awsCfg, err := awsclients.LoadConfig(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("sms transport", zap.Error(err))
		}
		mustRegister(registry, channel.NewSMSChannel(
			awsclients.NewSNSClient(awsCfg),
			models.NotificationPriority(n.SMS.PriorityThreshold),
			cfg.Integrations.AWS.SNS.DefaultSMSSenderID,
			n.Brand,
			log,
		), zapLog)
	}

	if n.Search.Enabled {
		var es *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		if err := es.EnsureIndex(ctx, n.Search.Index, channel.SearchIndexMapping); err != nil {
			zapLog.Fatal("elasticsearch index", zap.Error(err))
		}
		mustRegister(registry, channel.NewSearchChannel(es.Client, n.Search.Index, log), zapLog)
		checks["elasticsearch"] = es.Ping
	}

	zapLog.Info("Delivery channels registered", zap.Strings("channels", registry.Names()))

	svc := service.New(service.Deps{
		Store:    store.NewPostgresStore(pg.DB),
		Channels: registry,
		Resolver: resolver,
		Enricher: service.NewEnricher(dir, n.EnrichmentTimeoutDuration(), log),
		Unread:   service.NewUnreadCache(rdb.Client, n.UnreadCacheTTLDuration(), log),
		Obs:      obs,
		Logger:   log,
	})

	// --- Zeebe workers ---
	var (
		zeebe   *camunda.Client
		workers []*camunda.Worker
	)
	if cfg.Camunda.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClient(ctx, cfg.Camunda, 10*time.Second)
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		checks["zeebe"] = zeebe.HealthCheck
		workers = startWorkers(cfg, zeebe, svc, log, zapLog)
	}

	// --- HTTP ---
	var verifier *auth.TokenVerifier
	if cfg.Auth.JWTSecret != "" {
		verifier = auth.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.RoleClaim)
	} else {
		zapLog.Warn("auth.jwt_secret is empty, trusting the X-User-Role header")
	}
	server := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           api.NewServer(svc, verifier, checks, log).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.HTTP.ShutdownTimeout))
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP shutdown", zap.Error(err))
	}
	for _, w := range workers {
		w.Stop()
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}
	obs.Shutdown(shutdownCtx)

	zapLog.Info("Notification manager stopped gracefully")
}

func newEmailTransport(ctx context.Context, cfg *config.Config) (channel.EmailTransport, error) {
	n := cfg.Notifications
	switch n.Email.Provider {
	case "smtp":
		s := cfg.Integrations.SMTP
		return channel.NewSMTPTransport(channel.SMTPConfig{
			Host:     s.Host,
			Port:     s.Port,
			Username: s.Username,
			Password: s.Password,
			UseTLS:   s.UseTLS,
			From:     n.Email.FromEmail,
			FromName: n.Email.FromName,
		}), nil
	default:
		awsCfg, err := awsclients.LoadConfig(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			return nil, err
		}
		return channel.NewSESTransport(
			awsclients.NewSESClient(awsCfg),
			n.Email.FromEmail,
			n.Email.FromName,
			cfg.Integrations.AWS.SES.ConfigurationSet,
		), nil
	}
}

func mustRegister(r *channel.Registry, ch channel.Channel, log *zap.Logger) {
	if err := r.Register(ch); err != nil {
		log.Fatal("register channel", zap.String("channel", ch.Name()), zap.Error(err))
	}
}

func startWorkers(cfg *config.Config, zeebe *camunda.Client, svc *service.Service, log logger.Logger, zapLog *zap.Logger) []*camunda.Worker {
	var workers []*camunda.Worker

	if wcfg := config.GetWorkerConfig(cfg, workerCreateNotification); wcfg.Enabled {
		handler, err := createnotification.NewHandler(createnotification.HandlerOptions{
			Config:  createnotification.FromWorkerConfig(wcfg),
			Creator: svc,
			Logger:  log,
		})
		if err != nil {
			zapLog.Fatal("failed to create create-notification handler", zap.Error(err))
		}
		workers = append(workers, camunda.StartWorker(zeebe, createnotification.TaskType,
			wcfg.MaxJobsActive, config.GetDuration(wcfg.Timeout), handler, log))
	} else {
		zapLog.Info("worker disabled", zap.String("worker", workerCreateNotification))
	}

	if wcfg := config.GetWorkerConfig(cfg, workerMarkRead); wcfg.Enabled {
		handler, err := marknotificationsread.NewHandler(marknotificationsread.HandlerOptions{
			Config:  marknotificationsread.FromWorkerConfig(wcfg),
			Updater: svc,
			Logger:  log,
		})
		if err != nil {
			zapLog.Fatal("failed to create mark-notifications-read handler", zap.Error(err))
		}
		workers = append(workers, camunda.StartWorker(zeebe, marknotificationsread.TaskType,
			wcfg.MaxJobsActive, config.GetDuration(wcfg.Timeout), handler, log))
	} else {
		zapLog.Info("worker disabled", zap.String("worker", workerMarkRead))
	}

	return workers
}
