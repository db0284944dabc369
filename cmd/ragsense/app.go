package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/ragsense/ragsense/internal/adapters/driven/ai"
	"github.com/ragsense/ragsense/internal/adapters/driven/auth"
	"github.com/ragsense/ragsense/internal/adapters/driven/elasticsearch"
	"github.com/ragsense/ragsense/internal/adapters/driven/memory"
	"github.com/ragsense/ragsense/internal/adapters/driven/postgres"
	postgresqueue "github.com/ragsense/ragsense/internal/adapters/driven/queue/postgres"
	redisqueue "github.com/ragsense/ragsense/internal/adapters/driven/queue/redis"
	redisadapter "github.com/ragsense/ragsense/internal/adapters/driven/redis"
	"github.com/ragsense/ragsense/internal/config"
	"github.com/ragsense/ragsense/internal/core/ports/driven"
	"github.com/ragsense/ragsense/internal/core/ports/driving"
	"github.com/ragsense/ragsense/internal/core/services"
	"github.com/ragsense/ragsense/internal/normalisers"
	"github.com/ragsense/ragsense/internal/runtime"
)

// app holds the wired adapters and services shared by all commands
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	store    *elasticsearch.DocumentStore
	services *runtime.Services
	lock     driven.DistributedLock
	runs     driven.ReindexRunStore
	queue    driven.TaskQueue // nil without Redis or PostgreSQL

	auth    driving.AuthService // nil when operator auth is not configured
	catalog driving.CatalogService
	search  driving.SearchService
	answer  driving.AnswerService
	reindex driving.ReindexService

	closers []func() error
}

// newApp connects the backing services and builds the core services
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, logger: slog.Default()}
	if err := a.wire(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context) error {
	cfg := a.cfg

	// ===== Elasticsearch =====
	log.Println("Connecting to Elasticsearch...")
	esConfig := elasticsearch.DefaultConfig(cfg.Elasticsearch.URL)
	esConfig.Username = cfg.Elasticsearch.Username
	esConfig.Password = cfg.Elasticsearch.Password
	esConfig.APIKey = cfg.Elasticsearch.APIKey
	if cfg.Elasticsearch.Timeout > 0 {
		esConfig.Timeout = cfg.Elasticsearch.Timeout
	}
	if cfg.Elasticsearch.MaxRetries > 0 {
		esConfig.MaxRetries = cfg.Elasticsearch.MaxRetries
	}
	store, err := elasticsearch.NewDocumentStore(esConfig)
	if err != nil {
		return fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}
	a.store = store
	if err := store.Ping(ctx); err != nil {
		log.Printf("Warning: Elasticsearch health check failed: %v (search may not work)", err)
	} else {
		log.Println("Elasticsearch connected")
	}

	// ===== Redis (optional) =====
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		log.Println("Connecting to Redis...")
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		redisClient = redis.NewClient(opts)
		a.closers = append(a.closers, redisClient.Close)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Println("Redis connected")
	}

	// ===== PostgreSQL (optional) =====
	var db *postgres.DB
	if cfg.DatabaseURL != "" {
		log.Println("Connecting to PostgreSQL...")
		db, err = postgres.Connect(ctx, postgres.DefaultConfig(cfg.DatabaseURL))
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		if err := db.InitSchema(ctx); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
		log.Println("PostgreSQL connected and schema initialized")
	}

	// ===== Task Queue (Redis if available, otherwise PostgreSQL) =====
	queueBackend := "none"
	switch {
	case redisClient != nil:
		q, err := redisqueue.NewQueue(ctx, redisClient, fmt.Sprintf("worker-%d", os.Getpid()))
		if err != nil {
			return fmt.Errorf("failed to create task queue: %w", err)
		}
		a.queue = q
		queueBackend = "redis"
		log.Println("Using Redis task queue")
	case db != nil:
		a.queue = postgresqueue.NewQueue(db.DB)
		queueBackend = "postgres"
		log.Println("Using PostgreSQL task queue")
	default:
		log.Println("No task queue configured, reindex runs are synchronous only")
	}
	if a.queue != nil {
		a.closers = append(a.closers, a.queue.Close)
	}

	// ===== Distributed Lock (Redis, PostgreSQL leases, or in-process) =====
	switch {
	case redisClient != nil:
		a.lock = redisadapter.NewLock(redisClient)
		log.Println("Using Redis distributed lock")
	case db != nil:
		a.lock = postgres.NewLeaseLock(db)
		log.Println("Using PostgreSQL lease lock")
	default:
		a.lock = memory.NewLock()
		log.Println("Using in-process lock (single instance only)")
	}

	// ===== Reindex run history =====
	if db != nil {
		a.runs = postgres.NewReindexRunStore(db)
	} else {
		a.runs = memory.NewRunStore(memory.DefaultRunHistory)
	}

	// ===== AI services =====
	var factoryOpts []ai.FactoryOption
	if redisClient != nil && cfg.QueryCacheTTL > 0 {
		factoryOpts = append(factoryOpts, ai.WithQueryCache(redisadapter.NewEmbeddingCache(redisClient), cfg.QueryCacheTTL))
	}
	aiFactory := ai.NewFactory(factoryOpts...)

	a.services = runtime.NewServices(queueBackend)
	a.closers = append(a.closers, a.services.Close)

	embedding, err := aiFactory.CreateEmbeddingService(&cfg.Embedding)
	if err != nil {
		return fmt.Errorf("failed to create embedding service: %w", err)
	}
	if err := a.services.ValidateAndSetEmbedding(ctx, embedding); err != nil {
		log.Printf("Warning: embedding service health check failed: %v (vector search disabled)", err)
	}

	llm, err := aiFactory.CreateLLMService(&cfg.LLM)
	if err != nil {
		return fmt.Errorf("failed to create LLM service: %w", err)
	}
	if err := a.services.ValidateAndSetLLM(ctx, llm); err != nil {
		log.Printf("Warning: LLM health check failed: %v (answers disabled)", err)
	}

	// ===== Catalog =====
	sources, mapping, err := cfg.LoadCatalog()
	if err != nil {
		return fmt.Errorf("failed to load source catalog: %w", err)
	}

	// ===== Services =====
	registry := normalisers.DefaultRegistry()

	a.auth = newAuthService(cfg)
	a.catalog = services.NewCatalogService(store, sources)
	a.answer = services.NewAnswerService(services.AnswerServiceConfig{
		Store:        store,
		Services:     a.services,
		SystemPrompt: cfg.LLM.SystemPrompt,
		Logger:       a.logger,
	})
	a.search = services.NewSearchService(services.SearchServiceConfig{
		Store:    store,
		Registry: registry,
		Mapping:  mapping,
		Services: a.services,
		Answers:  a.answer,
		Weights:  cfg.Weights,
		Logger:   a.logger,
	})
	a.reindex = services.NewReindexService(services.ReindexServiceConfig{
		Indexer:     services.NewEmbeddingIndexer(store, registry, mapping, a.logger),
		Services:    a.services,
		Lock:        a.lock,
		Runs:        a.runs,
		Queue:       a.queue,
		Catalog:     a.catalog,
		LockTTL:     cfg.Reindex.LockTTL,
		Concurrency: cfg.Reindex.Concurrency,
		Logger:      a.logger,
	})

	caps := a.services.Capabilities()
	log.Printf("Capabilities: queue_backend=%s, modes=%v, answers=%t, auth=%t, sources=%d",
		caps.QueueBackend,
		caps.SearchModes,
		caps.Answers,
		a.auth != nil,
		len(sources))

	return nil
}

// newAuthService returns nil when no JWT secret or operator key hash is set
func newAuthService(cfg *config.Config) driving.AuthService {
	if !cfg.Auth.Enabled() {
		return nil
	}
	return services.NewAuthService(auth.NewAdapter(cfg.Auth.JWTSecret), cfg.Auth.OperatorKeyHash, cfg.Auth.TokenTTL)
}

// Close releases connections in reverse order of creation
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}
