package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/dexladder/internal/ladder/application"
	"github.com/wyfcoding/dexladder/internal/ladder/domain"
	"github.com/wyfcoding/dexladder/internal/ladder/infrastructure/client"
	"github.com/wyfcoding/dexladder/internal/ladder/infrastructure/messaging"
	"github.com/wyfcoding/dexladder/internal/ladder/infrastructure/persistence/memory"
	"github.com/wyfcoding/dexladder/internal/ladder/infrastructure/persistence/mysql"
	redisrepo "github.com/wyfcoding/dexladder/internal/ladder/infrastructure/persistence/redis"
	grpcserver "github.com/wyfcoding/dexladder/internal/ladder/interfaces/grpc"
	httpserver "github.com/wyfcoding/dexladder/internal/ladder/interfaces/http"
	"github.com/wyfcoding/dexladder/pkg/cache"
	"github.com/wyfcoding/dexladder/pkg/config"
	"github.com/wyfcoding/dexladder/pkg/db"
	"github.com/wyfcoding/dexladder/pkg/logger"
	"github.com/wyfcoding/dexladder/pkg/metrics"
	"github.com/wyfcoding/dexladder/pkg/middleware"
	"github.com/wyfcoding/dexladder/pkg/mq"
	"github.com/wyfcoding/dexladder/pkg/ratelimit"
	"github.com/wyfcoding/dexladder/pkg/utils"
	"golang.org/x/sync/errgroup"
)

var (
	configPath = flag.String("config", config.GetEnv("LADDERBOT_CONFIG", "configs/ladderbot/config.toml"), "config file path")
	cancelAll  = flag.Bool("cancel-all", false, "cancel every open order of the account and exit")
)

func main() {
	flag.Parse()

	// 1. Config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Logger
	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.Get().With("service", cfg.ServiceName, "environment", cfg.Environment)

	if err := run(cfg, log); err != nil {
		logger.Fatal(context.Background(), "ladderbot exited with error",
			"service", cfg.ServiceName, "kind", domain.ErrorKind(err), "error", err)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Metrics
	m := metrics.New(cfg.ServiceName)
	if err := m.Register(); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	// 4. Exchange clients
	dex, err := client.NewDexClient(client.DexConfig{
		APIRoot:         cfg.Exchange.APIRoot,
		LightAPIRoot:    cfg.Exchange.LightAPIRoot,
		Chain:           cfg.Exchange.Chain,
		Timeout:         cfg.Exchange.RequestTimeout(),
		RateLimit:       ratelimit.Limit{QPS: cfg.Exchange.RateLimitQPS, Burst: cfg.Exchange.Burst},
		BreakerFailures: uint32(max(cfg.Exchange.BreakerFailures, 0)),
		BreakerTimeout:  time.Duration(cfg.Exchange.BreakerTimeout) * time.Second,
		PageSize:        cfg.Exchange.PageSize,
		DepthStep:       cfg.Exchange.DepthStep,
	}, log)
	if err != nil {
		return err
	}
	signer, err := client.NewSignerClient(client.SignerConfig{
		Endpoint:   cfg.Signer.Endpoint,
		Account:    cfg.Bot.Account,
		Permission: cfg.Signer.Permission,
		Timeout:    time.Duration(cfg.Signer.TimeoutMs) * time.Millisecond,
		MaxRetries: cfg.Signer.MaxRetries,
	}, log)
	if err != nil {
		return err
	}
	builder := domain.NewActionBuilder(cfg.Bot.Account, cfg.Bot.ProcessQueue)
	submitter := application.NewBatchSubmitter(signer, builder, application.BatchConfig{
		Size:   cfg.Bot.BatchSize,
		Pacing: cfg.Bot.BatchPacing(),
	}, log)

	if *cancelAll {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Duration(cfg.Bot.ShutdownTimeout)*time.Second)
		defer cancel()
		done := logger.LogDuration(cctx, "cancel-all finished", "account", cfg.Bot.Account)
		n, err := application.CancelAccountOrders(cctx, dex, submitter, cfg.Bot.Account)
		done()
		if err != nil {
			return fmt.Errorf("cancel all orders: %w", err)
		}
		log.Info("open orders cancelled", "account", cfg.Bot.Account, "cancelled", n)
		return nil
	}

	// 5. Strategies
	kind, err := domain.ParseStrategyKind(cfg.Bot.Strategy)
	if err != nil {
		return err
	}
	raw := make([]domain.RawPair, 0, len(cfg.Bot.ActivePairs()))
	for _, p := range cfg.Bot.ActivePairs() {
		raw = append(raw, domain.RawPair(p))
	}
	pairs, err := domain.ParsePairConfigs(kind, raw)
	if err != nil {
		return err
	}
	strategies := make([]domain.Strategy, 0, len(pairs))
	for _, p := range pairs {
		s, err := domain.NewStrategy(p)
		if err != nil {
			return err
		}
		strategies = append(strategies, s)
	}

	// 6. Storage and events
	var placements domain.PlacementRepository
	if cfg.Database.Enabled {
		database, err := db.Init(db.Config{
			Driver:             cfg.Database.Driver,
			DSN:                cfg.Database.DSN,
			MaxOpenConns:       cfg.Database.MaxOpenConns,
			MaxIdleConns:       cfg.Database.MaxIdleConns,
			ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
			LogEnabled:         cfg.Database.LogEnabled,
			SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
		})
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer database.Close()
		if cfg.Database.AutoMigrate || cfg.Environment == "dev" {
			if err := mysql.AutoMigrate(database); err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}
		}
		placements = mysql.NewPlacementRepository(database)
	}

	var readModel domain.LadderReadRepository = memory.NewLadderRepository()
	if cfg.Redis.Enabled {
		rc, err := cache.New(cache.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			MaxPoolSize:  cfg.Redis.MaxPoolSize,
			ConnTimeout:  cfg.Redis.ConnTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rc.Close()
		readModel = redisrepo.NewLadderRedisRepository(rc)
	}

	var publisher domain.EventPublisher = messaging.NopPublisher{}
	if cfg.Kafka.Enabled {
		producer, err := mq.NewProducer(mq.KafkaConfig{
			Brokers:           cfg.Kafka.Brokers,
			MaxRetries:        cfg.Kafka.MaxRetries,
			EnableCompression: cfg.Kafka.EnableCompression,
			WriteTimeout:      cfg.Kafka.WriteTimeout,
		})
		if err != nil {
			return fmt.Errorf("create kafka producer: %w", err)
		}
		defer producer.Close()
		publisher = messaging.NewKafkaPublisher(producer, cfg.Kafka.TopicPrefix)
	}

	// 7. Markets
	lctx, cancel := context.WithTimeout(ctx, time.Minute)
	registry, err := application.LoadMarketRegistry(lctx, dex)
	cancel()
	if err != nil {
		return err
	}
	log.Info("markets loaded", "markets", registry.Len())

	ids, err := utils.NewIDGenerator(cfg.Bot.NodeID)
	if err != nil {
		return err
	}
	engine, err := application.NewEngine(application.EngineConfig{
		Account:         cfg.Bot.Account,
		Strategy:        kind,
		Interval:        cfg.Bot.TradeInterval(),
		CancelOnExit:    cfg.Bot.CancelOpenOrdersOnExit,
		ShutdownTimeout: time.Duration(cfg.Bot.ShutdownTimeout) * time.Second,
	}, strategies, application.EngineDeps{
		Snapshots:  application.NewSnapshotProvider(registry, dex),
		Accounts:   dex,
		Submitter:  submitter,
		Placements: placements,
		ReadModel:  readModel,
		Publisher:  publisher,
		Metrics:    m,
		NewTickID:  ids.Next,
	}, log)
	if err != nil {
		return err
	}

	// 8. Interfaces
	health := grpcserver.NewHealthServer()
	health.SetServing(true)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.GinRecoveryMiddleware(), middleware.GinLoggingMiddleware())
	reporter := application.NewAccountReporter(application.AccountReporterConfig{
		Account:      cfg.Bot.Account,
		Interval:     cfg.Bot.AccountReportInterval(),
		HistoryLimit: cfg.Bot.OrderHistoryLimit,
	}, dex, publisher, log)
	query := application.NewLadderQueryService(readModel, placements).WithAccountReporter(reporter)
	httpserver.NewLadderHandler(query).RegisterRoutes(r)
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}
	metricsSrv := m.NewHTTPServer(cfg.Metrics.Port, cfg.Metrics.Path)

	// 9. Start
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := engine.Run(gctx)
		health.SetServing(false)
		stop()
		return err
	})

	g.Go(func() error {
		return reporter.Run(gctx)
	})

	if cfg.GRPC.Enabled {
		g.Go(func() error {
			lis, err := net.Listen("tcp", cfg.GRPC.Addr())
			if err != nil {
				return err
			}
			log.Info("gRPC server starting", "addr", cfg.GRPC.Addr())
			return health.Server().Serve(lis)
		})
	}
	if cfg.HTTP.Enabled {
		g.Go(func() error {
			log.Info("HTTP server starting", "addr", httpSrv.Addr)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	if cfg.Metrics.Enabled {
		g.Go(func() error {
			log.Info("metrics server starting", "addr", metricsSrv.Addr)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down servers...")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		health.Shutdown()
		_ = httpSrv.Shutdown(sctx)
		_ = metricsSrv.Shutdown(sctx)
		return nil
	})

	return g.Wait()
}
