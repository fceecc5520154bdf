package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"tripboard/internal/config"
	"tripboard/internal/constants"
	"tripboard/internal/logger"
	"tripboard/internal/trips"
	"tripboard/internal/trips/gateway"
	"tripboard/pkg/bootstrap"
	"tripboard/pkg/health"
	"tripboard/pkg/metrics"
	"tripboard/pkg/middleware"
	"tripboard/pkg/models"
)

type App struct {
	*bootstrap.Base
	dbConnector *bootstrap.DatabaseConnector
	redis       *redis.Client
	mongoClient *mongo.Client
	service     trips.Service
	server      *http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName("aggregation-service")
	}
	return &App{
		Base:        bootstrap.NewBase(cfg, log),
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	rdb, err := a.dbConnector.InitRedis(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	a.redis = rdb

	mongoClient, err := a.dbConnector.InitMongoDB(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize MongoDB: %w", err)
	}
	a.mongoClient = mongoClient

	if err := a.InitBroker(); err != nil {
		return fmt.Errorf("failed to initialize broker: %w", err)
	}

	metrics.RegisterAggregationMetrics()
	metrics.RegisterCircuitBreakerMetrics()
	metrics.RegisterBrokerMetrics()

	a.initService()

	if err := a.initHTTPServer(); err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	return nil
}

func (a *App) initService() {
	db := a.mongoClient.Database(a.Config.Database.MongoDB.Database)

	cacheTTL := time.Duration(a.Config.Database.Redis.TTLSeconds) * time.Second
	fallbackCache := gateway.NewRedisCache(a.redis, cacheTTL)

	gateways := trips.NewGateways(a.Config.Aggregation, trips.GatewayDeps{
		Trips:    trips.NewTripRepository(db),
		Baggage:  trips.NewBaggageRepository(db),
		Tickets:  trips.NewTicketRepository(db),
		Cache:    fallbackCache,
		Observer: a.retryObserver(),
		Logger:   a.Logger,
	})

	a.service = trips.NewService(gateways, a.Producer, a.Config.Broker.Kafka.AggregationTopic, a.Logger)
}

// retryObserver publishes retry decisions on the side-channel without
// blocking or failing the observed call.
func (a *App) retryObserver() gateway.RetryObserver {
	topic := a.Config.Broker.Kafka.RetryTopic

	return func(ctx context.Context, dependency, key string, attempt int, nextDelay time.Duration, cause error) {
		evt := models.NewEvent(models.EventTypeDependencyRetry, models.DependencyRetry{
			Dependency: dependency,
			Key:        key,
			Attempt:    attempt,
			NextDelay:  nextDelay / time.Millisecond,
			Error:      cause.Error(),
		})

		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.PublishTimeout)
		go func() {
			defer cancel()
			_ = a.Producer.Publish(pubCtx, topic, evt)
		}()
	}
}

func (a *App) initHTTPServer() error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware(a.Logger))
	router.Use(middleware.LoggerMiddleware(a.Logger))
	router.Use(middleware.RequestIDMiddleware())

	handler := trips.NewHandler(a.service, a.Logger)
	handler.RegisterRoutes(router)

	healthRegistry := health.NewCheckerRegistry()
	healthRegistry.Register(health.NewRedisChecker(a.redis))
	healthRegistry.Register(health.NewMongoDBChecker(a.mongoClient))

	router.GET("/health", func(c *gin.Context) {
		h := healthRegistry.Check(c.Request.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, h)
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(a.Config.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(a.Config.Server.WriteTimeoutSeconds) * time.Second,
	}

	return nil
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfowCtx(ctx, "HTTP server starting", "port", a.Config.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.Logger.Errorw("HTTP server shutdown error", "error", err)
		}

		return a.Shutdown(shutdownCtx, func(sCtx context.Context) []error {
			return a.dbConnector.ShutdownDatabases(sCtx, a.redis, a.mongoClient)
		})
	})

	return g.Wait()
}
