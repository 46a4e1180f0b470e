package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/careline/chatbot-backend/internal/models"
)

// Database connection manager
type Manager struct {
	DB     *gorm.DB
	Redis  *redis.Client
	logger *logrus.Logger
}

// Database configuration
type Config struct {
	DatabaseURL string
	RedisURL    string
	LogLevel    string
}

// NewManager creates a new database manager with connection pooling
func NewManager(config *Config, logger *logrus.Logger) (*Manager, error) {
	gormLog := gormlogger.Default.LogMode(gormlogger.Silent)
	if config.LogLevel == "debug" {
		gormLog = gormlogger.Default.LogMode(gormlogger.Info)
	}

	// Open database connection with pooling
	db, err := gorm.Open(postgres.Open(config.DatabaseURL), &gorm.Config{
		Logger:                 gormLog,
		SkipDefaultTransaction: true, // Improve performance
		PrepareStmt:            true, // Cache prepared statements
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Connect to Redis
	redisOpts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	redisOpts.PoolSize = 20
	redisOpts.MinIdleConns = 5
	redisOpts.MaxConnAge = time.Hour
	redisOpts.IdleTimeout = 30 * time.Minute
	redisOpts.IdleCheckFrequency = 30 * time.Second

	redisClient := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Database and Redis connections established successfully")

	return &Manager{
		DB:     db,
		Redis:  redisClient,
		logger: logger,
	}, nil
}

// Migrate runs database migrations
func (m *Manager) Migrate() error {
	m.logger.Info("Running database migrations...")

	return m.DB.AutoMigrate(
		&models.ProductMaster{},
		&models.SalesProductMap{},
		&models.ManualListItem{},
		&models.IntentMaster{},
		&models.CodeMaster{},
		&models.CorpLanguageMap{},
		&models.ChatSummary{},
		&models.SystemHealth{},
	)
}

// Close closes all database connections
func (m *Manager) Close() error {
	if m.Redis != nil {
		if err := m.Redis.Close(); err != nil {
			m.logger.WithError(err).Error("Failed to close Redis connection")
		}
	}

	if m.DB != nil {
		sqlDB, err := m.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}

	return nil
}

// Health check methods
func (m *Manager) PingDatabase() error {
	sqlDB, err := m.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (m *Manager) PingRedis() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.Redis.Ping(ctx).Err()
}

// Cache implementation for master-data lookups. Master tables change
// rarely, so lookups tolerate generous TTLs.
type Cache struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewCache(client *redis.Client, logger *logrus.Logger) *Cache {
	return &Cache{
		client: client,
		logger: logger,
	}
}

// Cache key constants
const (
	ProductCodesKey = "master:products:%s:%s:%s"
	IntentKey       = "master:intent:%s:%s"
	ModelCodesKey   = "master:models:%s:%s"
	SystemHealthKey = "health:system"
)

// CacheProductCodes caches the product code list for a group lookup.
func (c *Cache) CacheProductCodes(ctx context.Context, iso, language, group string, codes []string, expiration time.Duration) error {
	key := fmt.Sprintf(ProductCodesKey, iso, language, group)

	data, err := json.Marshal(codes)
	if err != nil {
		return fmt.Errorf("failed to marshal product codes: %w", err)
	}

	return c.client.Set(ctx, key, data, expiration).Err()
}

// GetCachedProductCodes retrieves a cached product code list.
func (c *Cache) GetCachedProductCodes(ctx context.Context, iso, language, group string) ([]string, error) {
	key := fmt.Sprintf(ProductCodesKey, iso, language, group)

	data, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	var codes []string
	err = json.Unmarshal([]byte(data), &codes)
	return codes, err
}

// CacheIntent caches a resolved intent-master row.
func (c *Cache) CacheIntent(ctx context.Context, intentCode, locale string, intent *models.IntentMaster, expiration time.Duration) error {
	key := fmt.Sprintf(IntentKey, intentCode, locale)

	data, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("failed to marshal intent: %w", err)
	}

	return c.client.Set(ctx, key, data, expiration).Err()
}

// GetCachedIntent retrieves a cached intent-master row.
func (c *Cache) GetCachedIntent(ctx context.Context, intentCode, locale string) (*models.IntentMaster, error) {
	key := fmt.Sprintf(IntentKey, intentCode, locale)

	data, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	var intent models.IntentMaster
	if err := json.Unmarshal([]byte(data), &intent); err != nil {
		return nil, err
	}

	return &intent, nil
}

// CacheModelCodes caches resolved model codes for a sales code and mode.
func (c *Cache) CacheModelCodes(ctx context.Context, mode, salesCode string, codes []string, expiration time.Duration) error {
	key := fmt.Sprintf(ModelCodesKey, mode, salesCode)

	data, err := json.Marshal(codes)
	if err != nil {
		return fmt.Errorf("failed to marshal model codes: %w", err)
	}

	return c.client.Set(ctx, key, data, expiration).Err()
}

// GetCachedModelCodes retrieves cached resolved model codes.
func (c *Cache) GetCachedModelCodes(ctx context.Context, mode, salesCode string) ([]string, error) {
	key := fmt.Sprintf(ModelCodesKey, mode, salesCode)

	data, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	var codes []string
	err = json.Unmarshal([]byte(data), &codes)
	return codes, err
}

// CacheSystemHealth stores the latest overall health snapshot.
func (c *Cache) CacheSystemHealth(ctx context.Context, health interface{}, expiration time.Duration) error {
	data, err := json.Marshal(health)
	if err != nil {
		return fmt.Errorf("failed to marshal system health: %w", err)
	}

	return c.client.Set(ctx, SystemHealthKey, data, expiration).Err()
}

// GetCachedSystemHealth retrieves the latest cached health snapshot into dest.
func (c *Cache) GetCachedSystemHealth(ctx context.Context, dest interface{}) error {
	data, err := c.client.Get(ctx, SystemHealthKey).Result()
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(data), dest)
}

// InvalidateMasterCache removes every cached master-data entry.
func (c *Cache) InvalidateMasterCache(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, "master:*", 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
