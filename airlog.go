// airlog records air quality measurements posted by sensor stations and
// serves them back over REST and GraphQL.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	muxprom "gitlab.com/msvechla/mux-prometheus/pkg/middleware"

	"github.com/aeristo/airlog/api"
	"github.com/aeristo/airlog/auth"
	"github.com/aeristo/airlog/common"
	"github.com/aeristo/airlog/config"
	"github.com/aeristo/airlog/events"
	"github.com/aeristo/airlog/gql"
	"github.com/aeristo/airlog/infrastructure"
	"github.com/aeristo/airlog/usecase"
	"github.com/aeristo/airlog/websocket"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoPort, err := strconv.Atoi(cfg.Mongo.Port)
	if err != nil {
		logger.Fatalf("mongo port %q is not a number", cfg.Mongo.Port)
	}
	databaseAdapter, err := infrastructure.NewDatabaseAdapter(&infrastructure.MongoConfig{
		URI:      cfg.Mongo.URI,
		Host:     cfg.Mongo.Host,
		User:     cfg.Mongo.User,
		Password: cfg.Mongo.Password,
		Database: cfg.Mongo.Database,
		Port:     mongoPort,
		Timeout:  cfg.Mongo.Timeout,
	}, logger)
	if err != nil {
		logger.Fatalf("setup mongo: %v", err)
	}
	defer databaseAdapter.Close()

	if err := databaseAdapter.EnsureIndexes(infrastructure.MeasurementIndexes); err != nil {
		logger.Fatalf("ensure measurement indexes: %v", err)
	}
	if err := databaseAdapter.EnsureIndexes(infrastructure.UserIndexes); err != nil {
		logger.Fatalf("ensure user indexes: %v", err)
	}

	measurementRepo := infrastructure.NewMeasurementMongoRepository(databaseAdapter)
	userRepo := infrastructure.NewUserMongoRepository(databaseAdapter)

	tokens, err := auth.NewTokenService(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	if err != nil {
		logger.Fatalf("setup token service: %v", err)
	}

	bus := events.NewBus(logger)
	defer bus.Close()

	measurementUseCase := usecase.NewMeasurementUseCase(logger, measurementRepo, bus, common.ListPolicy{
		Sorted: cfg.List.Sorted,
		Limit:  cfg.List.Limit,
	})
	accountUseCase := usecase.NewAccountUseCase(logger, userRepo, tokens, cfg.Production())

	exporter := buildExporter(ctx, cfg, logger, measurementUseCase)

	/*
	 * Instrumentation setup
	 */
	instrumentation := muxprom.NewCustomInstrumentation(true, "aeristo", "airlog", prometheus.DefBuckets, nil, prometheus.DefaultRegisterer)

	rtr := mux.NewRouter()
	rtr.Use(instrumentation.Middleware)
	rtr.Path("/metrics").Handler(promhttp.Handler())

	restAPI := api.InitAPI(measurementUseCase, accountUseCase, exporter, tokens, databaseAdapter, logger, api.Credential{
		Username: cfg.Credential.Username,
		Password: cfg.Credential.Password,
		UserID:   cfg.Credential.UserID,
	})
	restAPI.SetHandlers("", rtr)

	resolver := gql.NewResolver(measurementUseCase, accountUseCase, logger)
	gqlSchema, err := gql.NewSchema(resolver)
	if err != nil {
		logger.Fatalf("build graphql schema: %v", err)
	}
	rtr.Path("/graphql").Handler(gql.NewHTTPHandler(gqlSchema, tokens))

	hub := websocket.NewHub(logger)
	go hub.Run(ctx)
	busMessages, err := bus.SubscribeMeasurementAdded(ctx)
	if err != nil {
		logger.Fatalf("subscribe to measurement events: %v", err)
	}
	go hub.Consume(busMessages)
	rtr.Path("/subscriptions").Handler(websocket.HandleSubscribe(hub, logger))

	// compressed (gzip/deflate) responses when the client accepts them,
	// measurement listings compress well
	gzipHandler := handlers.CompressHandler(rtr)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: gzipHandler,
	}

	go func() {
		logger.Infof("listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
}

// buildExporter wires the S3 exporter when a bucket is configured,
// otherwise POST /export answers 503.
func buildExporter(ctx context.Context, cfg config.Config, logger *logrus.Logger, measurements *usecase.MeasurementUseCase) *usecase.Exporter {
	if cfg.Export.Bucket == "" {
		logger.Info("no export bucket configured, export disabled")
		return nil
	}

	awsConfig, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(cfg.Export.Region))
	if err != nil {
		logger.Fatalf("load aws config: %v", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Export.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Export.Endpoint)
			o.UsePathStyle = true
		}
	})
	uploader, err := infrastructure.NewS3Uploader(client, cfg.Export.Bucket, cfg.Export.KeyPrefix)
	if err != nil {
		logger.Fatalf("setup s3 uploader: %v", err)
	}
	logger.Infof("exporting to s3 bucket %s (region %s)", cfg.Export.Bucket, cfg.Export.Region)

	exporter := usecase.NewExporter(logger, measurements, uploader)
	return &exporter
}
