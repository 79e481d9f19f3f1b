package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/fekuna/omnipos-challan-service/config"
	"github.com/fekuna/omnipos-challan-service/internal/broker"
	"github.com/fekuna/omnipos-challan-service/internal/cache"
	"github.com/fekuna/omnipos-challan-service/internal/database/memory"
	"github.com/fekuna/omnipos-challan-service/internal/database/postgres"
	"github.com/fekuna/omnipos-challan-service/internal/logger"
	"github.com/fekuna/omnipos-challan-service/internal/retry"
	"github.com/fekuna/omnipos-challan-service/internal/search"
	"github.com/fekuna/omnipos-challan-service/internal/server"
	"github.com/fekuna/omnipos-challan-service/internal/transaction"
	"github.com/fekuna/omnipos-challan-service/migrations"

	"github.com/fekuna/omnipos-challan-service/internal/audit"
	auditH "github.com/fekuna/omnipos-challan-service/internal/audit/handler"
	auditRepoPkg "github.com/fekuna/omnipos-challan-service/internal/audit/repository"
	auditUCPkg "github.com/fekuna/omnipos-challan-service/internal/audit/usecase"

	"github.com/fekuna/omnipos-challan-service/internal/box"
	boxH "github.com/fekuna/omnipos-challan-service/internal/box/handler"
	boxListenerPkg "github.com/fekuna/omnipos-challan-service/internal/box/listener"
	boxRepoPkg "github.com/fekuna/omnipos-challan-service/internal/box/repository"
	boxUCPkg "github.com/fekuna/omnipos-challan-service/internal/box/usecase"

	"github.com/fekuna/omnipos-challan-service/internal/challan"
	challanH "github.com/fekuna/omnipos-challan-service/internal/challan/handler"
	challanRepoPkg "github.com/fekuna/omnipos-challan-service/internal/challan/repository"
	challanUCPkg "github.com/fekuna/omnipos-challan-service/internal/challan/usecase"

	"github.com/fekuna/omnipos-challan-service/internal/sequence"
	seqRepoPkg "github.com/fekuna/omnipos-challan-service/internal/sequence/repository"
	seqUCPkg "github.com/fekuna/omnipos-challan-service/internal/sequence/usecase"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type repositories struct {
	boxes     box.Repository
	audits    audit.Repository
	sequences sequence.Repository
	challans  challan.Repository
	tx        transaction.Manager
}

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             "info",
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = cfg.Logger.Encoding
		logConfig.Level = cfg.Logger.Level
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fyLocation, err := time.LoadLocation(cfg.Challan.FYTimezone)
	if err != nil {
		appLogger.Fatal("Invalid financial year timezone", zap.String("tz", cfg.Challan.FYTimezone), zap.Error(err))
	}

	// 3. Initialize Redis (locks, list cache, optional sequence backend)
	var (
		redisClient *cache.RedisClient
		locker      cache.Locker = cache.NoopLocker{}
		listCache   cache.Store  = cache.NoopStore{}
	)
	if cfg.Store.Driver != config.DriverMemory {
		redisClient, err = cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Warn("Could not connect to Redis, running without distributed locks and cache", zap.Error(err))
		} else {
			defer redisClient.Close()
			locker = cache.NewRedisLocker(redisClient)
			listCache = redisClient
			appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
		}
	}

	// 4. Initialize Repositories
	var repos repositories
	switch cfg.Store.Driver {
	case config.DriverMemory:
		store := memory.NewStore()
		repos = repositories{
			boxes:     memory.NewBoxRepository(store),
			audits:    memory.NewAuditRepository(store),
			sequences: memory.NewCounterRepository(store),
			challans:  memory.NewChallanRepository(store),
			tx:        store,
		}
		appLogger.Warn("Using in-memory store, state is lost on restart")
	case config.DriverPostgres:
		db := connectPostgres(ctx, cfg, appLogger)
		defer db.Close()
		repos = repositories{
			boxes:     boxRepoPkg.NewPGRepository(db),
			audits:    auditRepoPkg.NewPGRepository(db),
			sequences: seqRepoPkg.NewPGRepository(db),
			challans:  challanRepoPkg.NewPGRepository(db),
			tx:        postgres.NewTxManager(db),
		}
		if cfg.Store.SequenceBackend == config.DriverRedis {
			if redisClient == nil {
				appLogger.Fatal("SEQUENCE_BACKEND=redis requires a reachable Redis")
			}
			repos.sequences = seqRepoPkg.NewRedisRepository(redisClient.Client)
			appLogger.Warn("Using redis sequence backend, failed issuance can leave gaps")
		}
	default:
		appLogger.Fatal("Unknown STORE_DRIVER", zap.String("driver", cfg.Store.Driver))
	}

	// 5. Initialize Kafka producer and Elasticsearch (both optional)
	var challanOpts []challanUCPkg.Option
	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.ChallanTopic,
		})
		defer producer.Close()
		challanOpts = append(challanOpts, challanUCPkg.WithPublisher(producer))
		appLogger.Info("Kafka producer ready", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.ChallanTopic))
	}

	if cfg.Elastic.Enabled {
		esClient, err := search.NewClient(&search.Config{
			Addresses: cfg.Elastic.Addresses,
			Username:  cfg.Elastic.Username,
			Password:  cfg.Elastic.Password,
		})
		if err != nil {
			appLogger.Warn("Could not connect to Elasticsearch, search falls back to the database", zap.Error(err))
		} else {
			challanOpts = append(challanOpts, challanUCPkg.WithSearchIndex(challanRepoPkg.NewElasticIndex(esClient)))
			appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
		}
	}

	// 6. Initialize UseCases
	auditUC := auditUCPkg.NewAuditUseCase(repos.audits, repos.tx, appLogger)
	boxUC := boxUCPkg.NewBoxUseCase(repos.boxes, auditUC, repos.tx, locker, listCache, cfg.Redis.LockTTL, appLogger)
	seqUC := seqUCPkg.NewSequenceUseCase(repos.sequences, seqUCPkg.Config{
		GSTPrefix:    cfg.Challan.GSTPrefix,
		NonGSTPrefix: cfg.Challan.NonGSTPrefix,
		Location:     fyLocation,
	}, appLogger)
	challanUC := challanUCPkg.NewChallanUseCase(repos.challans, boxUC, auditUC, seqUC, repos.tx, challanUCPkg.Config{
		Retry:   retry.Policy{Attempts: cfg.Challan.RetryAttempts, Backoff: cfg.Challan.RetryBackoff},
		GSTRate: &cfg.Challan.GSTRate,
	}, appLogger, challanOpts...)

	// 7. Start movement listener
	if cfg.Kafka.Enabled {
		consumer := broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.MovementTopic,
			GroupID: cfg.Kafka.GroupID,
		})
		defer consumer.Close()
		go boxListenerPkg.NewStockListener(consumer, boxUC, appLogger).Start(ctx)
	}

	// 8. Start HTTP and gRPC servers
	httpCfg := server.HTTPConfig{
		Addr:           normalizePort(cfg.Server.HTTPPort),
		Development:    cfg.Server.AppEnv == "development",
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}
	router := server.NewRouter(httpCfg, appLogger,
		boxH.NewBoxHandler(boxUC, appLogger),
		auditH.NewAuditHandler(auditUC, appLogger),
		challanH.NewChallanHandler(challanUC, appLogger),
	)
	httpServer := server.NewHTTPServer(httpCfg, router)

	grpcPort := normalizePort(cfg.Server.GRPCPort)
	lis, err := net.Listen("tcp", grpcPort)
	if err != nil {
		appLogger.Fatal("failed to listen", zap.String("port", grpcPort), zap.Error(err))
	}
	grpcServer, healthServer := server.NewGRPCServer(appLogger)

	go func() {
		appLogger.Info("Starting HTTP server", zap.String("addr", httpCfg.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to serve http", zap.Error(err))
		}
	}()
	go func() {
		appLogger.Info("Starting gRPC server", zap.String("port", grpcPort))
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve grpc", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	healthServer.Shutdown()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("http shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()
	appLogger.Info("Server stopped")
}

func connectPostgres(ctx context.Context, cfg *config.Config, log logger.ZapLogger) *sqlx.DB {
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		log.Fatal("Could not connect to database", zap.Error(err))
	}
	log.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	if cfg.Postgres.AutoMigrate {
		if err := migrations.Apply(ctx, db, log); err != nil {
			log.Fatal("Could not apply migrations", zap.Error(err))
		}
	}
	return db
}

func normalizePort(port string) string {
	if !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}
