package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"interview_backend/internal/config"
	"interview_backend/internal/database"
	"interview_backend/internal/handlers"
	"interview_backend/internal/logger"
	"interview_backend/internal/middleware"
	"interview_backend/internal/repositories"
	"interview_backend/internal/routes"
	"interview_backend/internal/services"
	"interview_backend/internal/validator"
	"interview_backend/internal/workers"
	"interview_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// MatchQueue is both ends of the fan-out task queue.
type MatchQueue interface {
	services.MatchDispatcher
	workers.TaskSource
}

func Run() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)
	apperrors.Debug = cfg.Server.Env != "production"

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Connecting to database...", "driver", cfg.Database.Driver)
	gormDB, err := database.Open(ctx, database.Options{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	defer database.Close(gormDB)
	logger.Info("Database connected")

	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(gormDB); err != nil {
			logger.Fatal("Failed to migrate database", "error", err)
		}
	}

	var rdb *redis.Client
	if cfg.Redis.URL != "" {
		rdb, err = workers.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			logger.Fatal("Redis unavailable", "error", err)
		}
		defer rdb.Close()
		logger.Info("Redis connected")
	}

	queue, err := NewMatchQueue(cfg, rdb)
	if err != nil {
		logger.Fatal("Failed to set up match queue", "error", err)
	}

	var publisher services.EventPublisher = services.NopPublisher{}
	if rdb != nil {
		publisher = workers.NewRedisEventPublisher(rdb, cfg.Matching.EventsChannel)
	}

	container := NewServiceContainer(cfg, queue, publisher)

	// Background fan-out
	worker := workers.NewMatchWorker(gormDB, container.MatchingService, queue,
		cfg.Matching.WorkerRatePerSecond, cfg.Matching.WorkerBurst)
	worker.Start(ctx)

	if cfg.Matching.RescoreSchedule != "" {
		scheduler := workers.NewRescoreScheduler(queue, cfg.Matching.RescoreSchedule)
		if err := scheduler.Start(ctx); err != nil {
			logger.Fatal("Failed to start rescore scheduler", "error", err)
		}
		defer scheduler.Stop()
	}

	ginRouter := SetupRouter(gormDB, rdb, container)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              address,
		Handler:           ginRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "address", address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server startup error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
}

// NewMatchQueue picks the queue named by matching.queue_driver.
func NewMatchQueue(cfg *config.Config, rdb *redis.Client) (MatchQueue, error) {
	switch cfg.Matching.QueueDriver {
	case "redis":
		if rdb == nil {
			return nil, errors.New("queue_driver redis requires redis.url")
		}
		logger.Info("Using Redis match queue", "key", cfg.Matching.QueueKey)
		return workers.NewRedisQueue(rdb, cfg.Matching.QueueKey), nil
	case "inline", "":
		logger.Info("Using in-process match queue")
		return workers.NewInlineQueue(1024), nil
	default:
		return nil, fmt.Errorf("unknown queue_driver %q", cfg.Matching.QueueDriver)
	}
}

func NewServiceContainer(cfg *config.Config, dispatcher services.MatchDispatcher, publisher services.EventPublisher) *services.ServiceContainer {
	candidateRepo := repositories.NewCandidateRepository()
	jobRepo := repositories.NewJobRepository()
	matchRepo := repositories.NewMatchRepository()

	return &services.ServiceContainer{
		ProfileService: services.NewProfileService(candidateRepo, jobRepo, dispatcher),
		MatchingService: services.NewMatchingService(candidateRepo, jobRepo, matchRepo,
			dispatcher, publisher, cfg.Matching.ScoringConcurrency),
	}
}

// SetupRouter builds the gin engine. rdb may be nil.
func SetupRouter(gormDB *gorm.DB, rdb *redis.Client, container *services.ServiceContainer) *gin.Engine {
	appHandlers := initializeHandlers(container, rdb)

	ginRouter := initializeGinRouter(gormDB)
	routes.RegisterRoutes(ginRouter, appHandlers)

	return ginRouter
}

func initializeHandlers(container *services.ServiceContainer, rdb *redis.Client) *handlers.AppHandlers {
	customValidator := validator.New()
	baseHandler := handlers.NewBaseHandler(customValidator)

	return &handlers.AppHandlers{
		ProfileHandler:  handlers.NewProfileHandler(baseHandler, container.ProfileService),
		MatchingHandler: handlers.NewMatchingHandler(baseHandler, container.MatchingService),
		HealthHandler:   handlers.NewHealthHandler(baseHandler, rdb),
	}
}

func initializeGinRouter(db *gorm.DB) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.DBMiddleware(db))
	return router
}
