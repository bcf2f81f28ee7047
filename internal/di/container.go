package di

import (
	"context"
	"fmt"
	"sync"
	"time"

	"buildmarket/internal/auth"
	"buildmarket/internal/config"
	"buildmarket/internal/gateway"
	"buildmarket/internal/shared/eventbus"
	"buildmarket/internal/shared/logger"
	"buildmarket/internal/storage"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Container wires the application modules and owns their shared resources.
type Container struct {
	mu sync.RWMutex

	Config *config.Config
	Logger logger.Logger

	// Module instances
	AuthModule    *auth.AuthModule
	GatewayModule *gateway.GatewayModule

	// Shared infrastructure
	MongoClient *mongo.Client
	MongoDB     *mongo.Database
	Redis       *redis.Client
	Bus         eventbus.Bus
	Uploader    *storage.Uploader
}

// NewContainer creates an empty container for the given configuration.
func NewContainer(cfg *config.Config, log logger.Logger) *Container {
	return &Container{
		Config: cfg,
		Logger: log,
	}
}

// Initialize connects shared infrastructure and builds both modules. The
// gateway comes up first: the auth module needs its profile store and
// session resolver.
func (c *Container) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(c.Config.MongoDBURI))
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := mongoClient.Ping(ctx, nil); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	c.MongoClient = mongoClient
	c.MongoDB = mongoClient.Database(c.Config.DatabaseName)

	c.Redis = redis.NewClient(&redis.Options{
		Addr:     c.Config.RedisAddr,
		Password: c.Config.RedisPassword,
		DB:       c.Config.RedisDB,
	})
	if err := c.Redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}

	c.Bus = eventbus.NewEventBus(c.Logger)

	fileStore, err := storage.NewLocalStore(c.Config.StorageDir, c.Config.PublicBaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize file storage: %w", err)
	}
	c.Uploader = storage.NewUploader(fileStore, c.Logger)

	gatewayModule, err := gateway.NewGatewayModule(c.MongoDB, c.Bus, c.Uploader, c.Config.LoginPath, c.Logger)
	if err != nil {
		return fmt.Errorf("failed to create gateway module: %w", err)
	}
	c.GatewayModule = gatewayModule

	authModule, err := auth.NewAuthModule(
		c.MongoDB,
		c.Redis,
		gatewayModule.ProfileStore(),
		gatewayModule.Sessions(),
		c.Config,
		c.Logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create auth module: %w", err)
	}
	c.AuthModule = authModule

	return nil
}

// HealthCheck pings the shared infrastructure.
func (c *Container) HealthCheck(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.MongoClient != nil {
		if err := c.MongoClient.Ping(ctx, nil); err != nil {
			return fmt.Errorf("MongoDB health check failed: %w", err)
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("Redis health check failed: %w", err)
		}
	}
	return nil
}

// Close releases all shared resources.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var errs []error
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis client: %w", err))
		}
	}
	if c.MongoClient != nil {
		if err := c.MongoClient.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to disconnect MongoDB: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("container close errors: %v", errs)
	}
	return nil
}
