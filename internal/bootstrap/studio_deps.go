package bootstrap

import (
	"context"
	"time"

	"studio_server/adapter/out/messaging"
	"studio_server/adapter/out/mongodb"
	"studio_server/adapter/out/persistence"
	"studio_server/config"
	"studio_server/core/agent/llm"
	"studio_server/core/port/out"
	"studio_server/core/service/asset"
	"studio_server/core/service/brand"
	"studio_server/core/service/compliance"
	"studio_server/core/service/layout"
	"studio_server/core/service/queue"
	"studio_server/core/service/vision"
	"studio_server/infra/database"
	"studio_server/pkg/cache"
	"studio_server/pkg/logger"
	"studio_server/pkg/ratelimit"
	"studio_server/pkg/snowflake"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// Dependencies wires adapters and services for both the API and worker
// processes. Postgres and MongoDB are required; Redis is optional and
// degrades the deployment to single-process mode when absent.
type Dependencies struct {
	Config      *config.Config
	DB          *sqlx.DB
	Redis       *redis.Client
	MongoClient *mongo.Client
	MongoDB     *mongo.Database

	// Repositories
	AssetRepo      out.AssetRepository
	CollectionRepo out.CollectionRepository
	LayoutStore    out.LayoutStore
	QueueStore     out.QueueStore
	BrandRepo      out.BrandGuidelinesRepository

	// Messaging
	Producer out.GenerationProducer

	// Cache
	Cache out.Cache

	// Generation backends
	LLMClient   *llm.Client
	ImageClient *llm.ImageClient
	VideoClient *llm.VideoClient
	Protector   *ratelimit.BackendProtector

	// Services
	AssetService      *asset.Service
	BrandService      *brand.Service
	VisionService     *vision.Service
	ComplianceService *compliance.Service
	LayoutService     *layout.Service
	QueueService      *queue.Service
}

func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	deps := &Dependencies{Config: cfg}
	var cleanups []func()

	// Postgres (assets, collections)
	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	deps.DB = db
	cleanups = append(cleanups, func() { db.Close() })
	logger.Info("Postgres connected")

	// MongoDB (layouts, queue history, brand guidelines)
	mongoClient, mongoDB, err := mongodb.Connect(cfg.MongoDBURL, cfg.MongoDBName)
	if err != nil {
		cleanupAll(cleanups)
		return nil, nil, err
	}
	deps.MongoClient = mongoClient
	deps.MongoDB = mongoDB
	cleanups = append(cleanups, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	})
	logger.Info("MongoDB connected (database=%s)", cfg.MongoDBName)

	// Redis (job streams, status cache, backend rate limits)
	redisClient, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Warn("Redis connection failed, running without streams and cache: %v", err)
	} else {
		deps.Redis = redisClient
		cleanups = append(cleanups, func() { redisClient.Close() })
		deps.Cache = cache.NewRedisCache(redisClient)
		deps.Producer = messaging.NewRedisProducer(redisClient)
		deps.Protector = ratelimit.NewBackendProtector(redisClient, &ratelimit.Config{
			MaxConcurrent:     cfg.GenMaxConcurrent,
			RequestsPerSecond: cfg.GenRequestsPerSecond,
			BurstSize:         cfg.GenBurstSize,
			DebounceDuration:  30 * time.Second,
		})
		logger.Info("Redis connected")
	}

	// ID generation
	if err := snowflake.Init(cfg.SnowflakeNode); err != nil {
		cleanupAll(cleanups)
		return nil, nil, err
	}

	// Repositories
	deps.AssetRepo = persistence.NewAssetAdapter(db)
	deps.CollectionRepo = persistence.NewCollectionAdapter(db)

	layoutAdapter := mongodb.NewLayoutAdapter(mongoDB)
	queueAdapter := mongodb.NewQueueAdapter(mongoDB)
	brandAdapter := mongodb.NewBrandAdapter(mongoDB)
	deps.LayoutStore = layoutAdapter
	deps.QueueStore = queueAdapter
	deps.BrandRepo = brandAdapter

	indexCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := mongodb.EnsureAllIndexes(indexCtx, layoutAdapter, queueAdapter, brandAdapter); err != nil {
		logger.Warn("Failed to ensure MongoDB indexes: %v", err)
	}

	// Generation backends
	if cfg.OpenAIAPIKey != "" {
		deps.LLMClient = llm.NewClientWithConfig(llm.ClientConfig{
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.LLMModel,
			MaxTokens:   cfg.LLMMaxTokens,
			Temperature: cfg.LLMTemperature,
		})
		deps.ImageClient = llm.NewImageClientWithConfig(llm.ImageClientConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.ImageModel,
		})
		logger.Info("Image backend initialized (model=%s)", cfg.ImageModel)
	} else {
		logger.Warn("OPENAI_API_KEY not set, image generation disabled")
	}

	if cfg.VideoRenderURL != "" {
		deps.VideoClient = llm.NewVideoClient(llm.VideoClientConfig{
			BaseURL: cfg.VideoRenderURL,
			APIKey:  cfg.VideoRenderAPIKey,
		})
		logger.Info("Video render backend initialized")
	} else {
		logger.Warn("VIDEO_RENDER_URL not set, video generation disabled")
	}

	// Services
	deps.VisionService = vision.NewService()
	deps.ComplianceService = compliance.NewServiceWithThresholds(compliance.Thresholds{
		Error:  cfg.ComplianceErrorBelow,
		Warn:   cfg.ComplianceWarnBelow,
		Target: cfg.ComplianceTargetBelow,
	})
	deps.AssetService = asset.NewService(deps.AssetRepo, deps.CollectionRepo, deps.Cache)
	deps.BrandService = brand.NewService(deps.BrandRepo)
	deps.LayoutService = layout.NewService(
		deps.LayoutStore,
		deps.AssetRepo,
		deps.BrandRepo,
		deps.VisionService,
		deps.ComplianceService,
	)
	deps.QueueService = queue.NewServiceWithRetries(deps.QueueStore, deps.Producer, deps.AssetRepo, cfg.QueueMaxRetries)

	// Reload non-terminal queue items so in-flight work survives restarts.
	restoreCtx, cancelRestore := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelRestore()
	if err := deps.QueueService.Restore(restoreCtx); err != nil {
		logger.Warn("Queue restore failed: %v", err)
	}

	cleanup := func() { cleanupAll(cleanups) }
	return deps, cleanup, nil
}

func cleanupAll(cleanups []func()) {
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}

func (d *Dependencies) HealthCheck(ctx context.Context) error {
	if err := d.DB.PingContext(ctx); err != nil {
		return err
	}
	if d.Redis != nil {
		if err := d.Redis.Ping(ctx).Err(); err != nil {
			return err
		}
	}
	if d.MongoClient != nil {
		if err := d.MongoClient.Ping(ctx, nil); err != nil {
			return err
		}
	}
	return nil
}
