package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"docanalyst/internal/ai"
	appsvc "docanalyst/internal/app"
	"docanalyst/internal/cache"
	"docanalyst/internal/config"
	"docanalyst/internal/model"
	"docanalyst/internal/pipeline"
	mysqlClient "docanalyst/internal/platform/mysql"
	rabbitmqClient "docanalyst/internal/platform/rabbitmq"
	redisClient "docanalyst/internal/platform/redis"
	"docanalyst/internal/repository"
	"docanalyst/internal/worker"
)

type App struct {
	Config         *config.Config
	Logger         *slog.Logger
	MySQL          *gorm.DB
	Redis          *redis.Client
	MQConn         *amqp.Connection
	ExchangeWorker *worker.ExchangePersistWorker

	AuthService     *appsvc.AuthService
	AnalysisService *appsvc.AnalysisService

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	logger := NewLogger(cfg.App.Env)

	a := &App{Config: cfg, Logger: logger, StartedAt: time.Now()}
	if err := a.init(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.Config

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN(), mysqlClient.PoolOptions{
		MaxOpen: cfg.MySQL.MaxOpen,
		MaxIdle: cfg.MySQL.MaxIdle,
	})
	if err != nil {
		return err
	}
	a.MySQL = mysqlDB
	if err := mysqlDB.AutoMigrate(&model.User{}, &model.Document{}, &model.Exchange{}); err != nil {
		return fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, redisClient.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	a.Redis = redisCli

	exchangeCache := cache.NewExchangeCache(
		redisCli,
		time.Duration(cfg.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(cfg.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)

	userRepo := repository.NewUserRepository(mysqlDB)
	documentRepo := repository.NewDocumentRepository(mysqlDB)
	exchangeRepo := repository.NewExchangeRepository(mysqlDB)

	var recorder appsvc.ExchangeRecorder = appsvc.NewRepositoryRecorder(exchangeRepo)
	if cfg.RabbitMQ.Enabled {
		mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.ExchangePersistQueue)
		if err != nil {
			return err
		}
		a.MQConn = mqConn

		a.ExchangeWorker = worker.NewExchangePersistWorker(mqConn, exchangeRepo, exchangeCache, cfg.RabbitMQ.ExchangePersistQueue, a.Logger)
		if err := a.ExchangeWorker.Start(ctx); err != nil {
			return fmt.Errorf("start exchange worker failed: %w", err)
		}
		recorder = rabbitmqClient.NewExchangePublisher(mqConn, cfg.RabbitMQ.ExchangePersistQueue)
	}

	scorer, err := pipeline.NewScorer(cfg.Pipeline.Scorer)
	if err != nil {
		return err
	}
	llmClient := ai.NewOpenAICompatibleClient(cfg.LLM.Timeout())
	reasoner := ai.NewChatReasoner(llmClient, ai.ChatConfig{
		BaseURL:  cfg.LLM.BaseURL,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
		JSONMode: cfg.LLM.JSONMode,
	})
	synthesizer := pipeline.NewSynthesizer(reasoner, pipeline.SynthesizerConfig{
		Timeout:            cfg.LLM.Timeout(),
		FallbackConfidence: cfg.Pipeline.FallbackConfidence,
		EvidencePreview:    cfg.Pipeline.EvidencePreviewChars,
	})

	a.AuthService = appsvc.NewAuthService(
		userRepo,
		cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.JWTExpireMinute)*time.Minute,
	)
	a.AnalysisService = appsvc.NewAnalysisService(
		documentRepo,
		exchangeRepo,
		recorder,
		exchangeCache,
		pipeline.NewRanker(scorer, cfg.Pipeline.TopK),
		synthesizer,
		appsvc.AnalysisConfig{
			ChunkSize:       cfg.Pipeline.ChunkSize,
			MinContentChars: cfg.Pipeline.MinContentChars,
			RecordFailures:  cfg.Pipeline.RecordFailures,
		},
		a.Logger,
	)

	a.Logger.Info("application initialised",
		"env", cfg.App.Env,
		"scorer", cfg.Pipeline.Scorer,
		"chunk_size", cfg.Pipeline.ChunkSize,
		"async_persist", cfg.RabbitMQ.Enabled,
	)
	return nil
}

// NewLogger returns a text logger for local development and JSON elsewhere.
func NewLogger(env string) *slog.Logger {
	if env == "dev" {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func (a *App) Close() error {
	var closeErr error
	if a.ExchangeWorker != nil {
		a.ExchangeWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
