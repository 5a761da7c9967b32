package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"todo-service/internal/config"
	"todo-service/internal/events"
	"todo-service/internal/handler"
	"todo-service/internal/health"
	"todo-service/internal/repository"
	"todo-service/internal/service"
	"todo-service/pkg/db"
	"todo-service/pkg/logger"
	"todo-service/pkg/metrics"
)

const serviceName = "todo-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewLogger(serviceName, "info").WithError(err).Fatal("Invalid configuration")
	}

	log := logger.NewLogger(serviceName, cfg.LogLevel)
	log.Info("Starting Todo Service...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	serviceMetrics := metrics.NewMetrics("notes", reg)

	checker := health.NewChecker(serviceName, 3*time.Second)

	// Initialize storage
	noteRepo, closeStore, err := openStore(ctx, cfg, log, serviceMetrics, checker)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize note store")
	}
	defer closeStore()

	// Change events are optional
	publisher := events.NopPublisher()
	if cfg.RedisURL != "" {
		publisher, err = events.NewRedisPublisher(ctx, cfg.RedisURL, events.DefaultChannel)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to Redis")
		}
		checker.Register("redis", publisher)
		log.WithField("channel", events.DefaultChannel).Info("Publishing note events to Redis")
	}
	defer publisher.Close()

	noteService := service.NewNoteService(noteRepo, publisher, log)
	noteHandler := handler.NewNoteHandler(noteService, log)

	httpServer := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      handler.NewRouter(noteHandler, log, serviceMetrics, checker),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(logger.UnaryServerInterceptor(log)))
	healthpb.RegisterHealthServer(grpcServer, checker.GRPCServer())
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		log.WithError(err).WithField("port", cfg.GRPCPort).Fatal("Failed to listen")
	}

	go checker.Watch(ctx, 10*time.Second)

	errCh := make(chan error, 2)
	go func() {
		log.WithField("port", cfg.HTTPPort).Info("HTTP server started")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		log.WithField("port", cfg.GRPCPort).Info("gRPC health server started")
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errCh:
		log.WithError(err).Error("Server failed, shutting down")
	}

	checker.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP shutdown did not complete")
	}
	grpcServer.GracefulStop()

	log.Info("Shutdown complete")
}

// openStore returns the configured repository and a func releasing its pools
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger, m *metrics.Metrics, checker *health.Checker) (repository.NoteRepository, func(), error) {
	if cfg.DBDriver == config.DriverMemory {
		log.Warn("Using in-memory note store; notes are lost on restart")
		return repository.NewMemoryNoteRepository(), func() {}, nil
	}

	primary, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	checker.Register("database", primary)
	go m.WatchDBPool(ctx, primary.DB, 15*time.Second)

	if err := repository.EnsureSchema(ctx, primary.DB, primary.Dialect); err != nil {
		primary.Close()
		return nil, nil, err
	}

	schemaGuard := db.NewSchemaGuard(primary.DB, primary.Dialect)
	if err := schemaGuard.ValidateTable(ctx, repository.ExpectedSchema(primary.Dialect)); err != nil {
		log.WithError(err).Warn("Schema validation warning")
	}

	log.WithFields(logrus.Fields{
		"driver": primary.Dialect,
		"host":   cfg.Database.Host,
	}).Info("Database connected and schema validated")

	closers := []func() error{primary.Close}
	readDB := primary.DB
	if readCfg := cfg.ReadDatabase(); readCfg != nil {
		replica, err := db.NewConnection(ctx, *readCfg)
		if err != nil {
			primary.Close()
			return nil, nil, fmt.Errorf("read replica: %w", err)
		}
		checker.Register("database_replica", replica)
		closers = append(closers, replica.Close)
		readDB = replica.DB
		log.WithField("host", readCfg.Host).Info("Reads routed to replica")
	}

	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.WithError(err).Warn("Failed to close database pool")
			}
		}
	}

	return repository.NewNoteRepository(primary.DB, readDB, primary.Dialect), closeAll, nil
}
