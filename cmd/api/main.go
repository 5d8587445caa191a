package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/httplog/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/cmlabs-hris/attendance-backend-go/internal/config"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/identifier"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/person"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/tenant"
	appHTTP "github.com/cmlabs-hris/attendance-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/events"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/attendance-backend-go/internal/repository/memory"
	"github.com/cmlabs-hris/attendance-backend-go/internal/repository/postgresql"
	redisRepo "github.com/cmlabs-hris/attendance-backend-go/internal/repository/redis"
	attendanceService "github.com/cmlabs-hris/attendance-backend-go/internal/service/attendance"
	identifierService "github.com/cmlabs-hris/attendance-backend-go/internal/service/identifier"
	personService "github.com/cmlabs-hris/attendance-backend-go/internal/service/person"
	tenantService "github.com/cmlabs-hris/attendance-backend-go/internal/service/tenant"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Error loading config", "error", err)
		os.Exit(1)
	}

	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "attendance-backend"),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

type repositories struct {
	tenants    tenant.TenantRepository
	persons    person.PersonRepository
	sequences  identifier.SequenceRepository
	policies   attendance.PolicyRepository
	attendance attendance.AttendanceRepository
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	healthChecks := map[string]appHTTP.HealthCheck{}
	var repos repositories

	switch cfg.Database.Driver {
	case config.StoragePostgres:
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL())
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()
		healthChecks["postgres"] = func(ctx context.Context) error { return db.Ping(ctx) }

		if cfg.Database.MigrateOnStart {
			if err := postgresql.Migrate(ctx, db); err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}
			slog.Info("Database schema applied")
		}

		repos = repositories{
			tenants:    postgresql.NewTenantRepository(db),
			persons:    postgresql.NewPersonRepository(db),
			sequences:  postgresql.NewSequenceRepository(db),
			policies:   postgresql.NewPolicyRepository(db),
			attendance: postgresql.NewAttendanceRepository(db),
		}
	case config.StorageMemory:
		store := memory.NewStore()
		repos = repositories{
			tenants:    memory.NewTenantRepository(store),
			persons:    memory.NewPersonRepository(store),
			sequences:  memory.NewSequenceRepository(store),
			policies:   memory.NewPolicyRepository(store),
			attendance: memory.NewAttendanceRepository(store),
		}
		if _, err := repos.tenants.Create(ctx, tenant.Tenant{ID: "dev", Code: "DEV", Name: "Development", Timezone: "UTC"}); err != nil {
			return fmt.Errorf("seed development tenant: %w", err)
		}
		slog.Warn("Using in-memory storage, data is lost on restart", "tenant_id", "dev")
	}

	var redisClient *goredis.Client
	if cfg.NeedsRedis() {
		client, err := database.NewRedisClient(ctx, database.RedisConfig{
			URL:          cfg.Redis.URL,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		})
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer client.Close()
		redisClient = client
		healthChecks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}

	if cfg.Identifier.SequenceBackend == config.SequenceRedis {
		repos.sequences = redisRepo.NewSequenceRepository(redisClient)
	}

	var summaryCache attendance.SummaryCache
	switch cfg.SummaryCacheBackend() {
	case config.CacheRedis:
		summaryCache = redisRepo.NewSummaryCache(redisClient, cfg.Attendance.SummaryCacheTTL)
	case config.CacheMemory:
		summaryCache = memory.NewSummaryCache(cfg.Attendance.SummaryCacheTTL)
	default:
		slog.Info("summary cache disabled, no shared cache configured")
	}

	hub := events.NewHub()
	sinks := []events.Sink{{Name: "sse", Publisher: hub}}
	switch cfg.Events.Backend {
	case config.EventsLog:
		sinks = append(sinks, events.Sink{Name: "log", Publisher: events.LogPublisher{}})
	case config.EventsRedis:
		sinks = append(sinks, events.Sink{Name: "redis", Publisher: events.NewRedisPublisher(redisClient, cfg.Events.RedisKey, cfg.Events.RedisMaxLen)})
	case config.EventsKafka:
		producer, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return err
		}
		defer producer.Close()
		sinks = append(sinks, events.Sink{Name: "kafka", Publisher: producer})
	}

	rolls := identifierService.NewRollNumberGenerator(repos.persons, identifierService.RollNumberConfig{
		Digits:      cfg.Identifier.RollNumberDigits,
		MaxAttempts: cfg.Identifier.RollNumberMaxAttempts,
	}, nil, m)
	identifierSvc := identifierService.NewIdentifierService(repos.tenants, repos.sequences, rolls, m)
	personSvc := personService.NewPersonService(repos.persons, identifierSvc)
	attendanceSvc := attendanceService.NewAttendanceService(
		repos.attendance,
		repos.policies,
		personService.NewDirectory(repos.persons),
		summaryCache,
		events.NewFanout(m, sinks...),
		m,
		attendanceService.Config{
			BatchConcurrency: cfg.Attendance.BatchConcurrency,
			BatchMaxEntries:  cfg.Attendance.BatchMaxEntries,
		},
	)

	if cfg.Attendance.ReconcileEnabled {
		scheduler := cron.NewScheduler()
		cron.NewReconcileJobs(repos.tenants, attendanceSvc, cfg.Attendance.ReconcileHour).
			RegisterJobs(scheduler, cfg.Attendance.ReconcileInterval)
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	router := appHTTP.NewRouter(
		appHTTP.RouterConfig{
			Logger:         logger,
			AllowedOrigins: cfg.App.AllowedOrigins,
			Gatherer:       registry,
			HealthChecks:   healthChecks,
		},
		JWTService,
		repos.tenants,
		appHTTP.NewAttendanceHandler(attendanceSvc, hub),
		appHTTP.NewIdentifierHandler(identifierSvc),
		appHTTP.NewPersonHandler(personSvc),
		appHTTP.NewTenantHandler(tenantService.NewTenantService(repos.tenants)),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	server.RegisterOnShutdown(hub.Close)

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
