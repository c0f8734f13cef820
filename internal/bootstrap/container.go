package bootstrap

import (
	"context"
	"fmt"
	"time"

	"cv-evaluator-be/internal/config"
	"cv-evaluator-be/internal/constant"
	"cv-evaluator-be/internal/controller"
	"cv-evaluator-be/internal/pkg/logger"
	"cv-evaluator-be/internal/repository/contract"
	"cv-evaluator-be/internal/repository/implementation"
	"cv-evaluator-be/internal/repository/memory"
	"cv-evaluator-be/internal/repository/redisstore"
	"cv-evaluator-be/internal/service"
	"cv-evaluator-be/pkg/database"
	"cv-evaluator-be/pkg/evaluator"
	"cv-evaluator-be/pkg/events"
	"cv-evaluator-be/pkg/llm"
	"cv-evaluator-be/pkg/llm/factory"
	pktNats "cv-evaluator-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	// Controllers
	EvaluateController controller.IEvaluateController
	InfoController     controller.IInfoController

	// Background Services (Exposed for main.go to run)
	EventRelayService service.IEventRelayService
	SweeperService    service.ISweeperService

	Logger       logger.ILogger
	AccessLogger logger.ILogger
	MaxPrompts   int

	closers []func()
}

// NewContainer wires the application. llmProvider may be nil, in which case
// one is built from cfg.
func NewContainer(cfg *config.Config, llmProvider llm.LLMProvider) (*Container, error) {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	accessLogger := logger.NewIsolatedLogger(cfg.App.AccessLogPath)

	c := &Container{
		Logger:       sysLogger,
		AccessLogger: accessLogger,
		MaxPrompts:   constant.MaxPromptsPerSession,
	}
	c.closers = append(c.closers, func() {
		_ = sysLogger.Sync()
		_ = accessLogger.Sync()
	})

	// 2. Session Store
	sessions, err := c.newSessionRepository(cfg)
	if err != nil {
		c.Close()
		return nil, err
	}

	// 3. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })
	bus := events.NewBus(pubSub, constant.EventTopicSessions)

	// NATS export is optional
	var forwarder service.EventForwarder
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if natsPub == nil {
			sysLogger.Warn("BOOTSTRAP", "NATS unavailable, lifecycle events stay local", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			if err != nil {
				sysLogger.Warn("BOOTSTRAP", "NATS stream setup failed", map[string]interface{}{
					"error": err.Error(),
				})
			}
			forwarder = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	// 4. AI
	if llmProvider == nil {
		baseURL := cfg.Ai.GroqBaseURL
		if cfg.Ai.LLMProvider == "ollama" {
			baseURL = cfg.Ai.OllamaBaseURL
		}
		llmProvider, err = factory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.LLMModel, baseURL, cfg.Keys.Groq)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to initialize LLM provider: %w", err)
		}
	}
	sysLogger.Info("BOOTSTRAP", "LLM provider ready", map[string]interface{}{
		"provider": cfg.Ai.LLMProvider,
		"model":    cfg.Ai.LLMModel,
	})

	evalCfg := evaluator.DefaultConfig()
	evalCfg.Model = cfg.Ai.LLMModel
	cvEvaluator := evaluator.New(sessions, llmProvider, evalCfg, sysLogger)

	// 5. Services
	evaluationService := service.NewEvaluationService(sessions, cvEvaluator, bus, cfg.App.UploadDir, sysLogger)
	c.EventRelayService = service.NewEventRelayService(pubSub, constant.EventTopicSessions, forwarder, sysLogger)
	c.SweeperService = service.NewSweeperService(sessions, bus, cfg.Session.CleanupInterval, sysLogger)

	// 6. Controllers
	c.EvaluateController = controller.NewEvaluateController(evaluationService, cfg.Auth.JwtSecret)
	c.InfoController = controller.NewInfoController(c.MaxPrompts)

	return c, nil
}

func (c *Container) newSessionRepository(cfg *config.Config) (contract.CvSessionRepository, error) {
	switch cfg.Session.Store {
	case "", "memory":
		c.Logger.Info("BOOTSTRAP", "Using in-memory session store", nil)
		return memory.NewCvSessionRepository(), nil

	case "redis":
		opt, err := redis.ParseURL(cfg.Session.RedisURL)
		if err != nil {
			c.Logger.Warn("BOOTSTRAP", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{
				"error": err.Error(),
			})
			opt = &redis.Options{Addr: cfg.Session.RedisURL}
		}
		rdb := redis.NewClient(opt)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		c.closers = append(c.closers, func() { _ = rdb.Close() })
		c.Logger.Info("BOOTSTRAP", "Using Redis session store", nil)
		return redisstore.NewCvSessionRepository(rdb), nil

	case "postgres":
		if cfg.Session.DBConnection == "" {
			return nil, fmt.Errorf("SESSION_STORE=postgres requires DB_CONNECTION_STRING")
		}
		db, err := database.NewGormDBFromDSN(cfg.Session.DBConnection)
		if err != nil {
			return nil, fmt.Errorf("unable to connect to GORM DB: %w", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			c.closers = append(c.closers, func() { _ = sqlDB.Close() })
		}
		c.Logger.Info("BOOTSTRAP", "Using Postgres session store", nil)
		return implementation.NewCvSessionRepository(db), nil

	default:
		return nil, fmt.Errorf("unknown SESSION_STORE %q", cfg.Session.Store)
	}
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
