package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	MinIO     MinIOConfig
	Storage   StorageConfig
	Documents DocumentsConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// StorageConfig selects the durable store wiring: "mongo" keeps content
// inline in MongoDB, "tiered" splits metadata (MongoDB) from content
// blobs (MinIO), "memory" is for local development only.
type StorageConfig struct {
	Backend string
}

// DocumentsConfig bounds the coordinator's behavior: cache staleness
// window, per-dependency call timeouts, health probe timeout and the
// maximum accepted payload.
type DocumentsConfig struct {
	CacheTTL       time.Duration
	CacheTimeout   time.Duration
	StoreTimeout   time.Duration
	ProbeTimeout   time.Duration
	MaxContentSize int
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "5001")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("MONGODB_DATABASE", "docserve")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("STORAGE_BACKEND", "mongo")
	viper.SetDefault("STORAGE_BUCKET", "document-service-storage")
	viper.SetDefault("CACHE_TTL_SECONDS", 3600)
	viper.SetDefault("CACHE_TIMEOUT_MS", 200)
	viper.SetDefault("STORE_TIMEOUT_MS", 2000)
	viper.SetDefault("HEALTH_PROBE_TIMEOUT_MS", 1000)
	viper.SetDefault("MAX_CONTENT_BYTES", 100*1024)
	viper.SetDefault("RATE_LIMIT_RPS", 50.0)
	viper.SetDefault("RATE_LIMIT_BURST", 100)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:      getEnvOrPanic("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
		},
		MinIO: MinIOConfig{
			Endpoint:  viper.GetString("MINIO_ENDPOINT"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			UseSSL:    viper.GetBool("MINIO_USE_SSL"),
			Bucket:    viper.GetString("STORAGE_BUCKET"),
		},
		Storage: StorageConfig{
			Backend: viper.GetString("STORAGE_BACKEND"),
		},
		Documents: DocumentsConfig{
			CacheTTL:       time.Duration(viper.GetInt("CACHE_TTL_SECONDS")) * time.Second,
			CacheTimeout:   time.Duration(viper.GetInt("CACHE_TIMEOUT_MS")) * time.Millisecond,
			StoreTimeout:   time.Duration(viper.GetInt("STORE_TIMEOUT_MS")) * time.Millisecond,
			ProbeTimeout:   time.Duration(viper.GetInt("HEALTH_PROBE_TIMEOUT_MS")) * time.Millisecond,
			MaxContentSize: viper.GetInt("MAX_CONTENT_BYTES"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
	}

	// Basic validation
	if cfg.Storage.Backend == "tiered" && cfg.MinIO.Endpoint == "" {
		log.Println("WARNING: STORAGE_BACKEND=tiered but MINIO_ENDPOINT is not set")
	}

	return cfg, nil
}

func getEnvOrPanic(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("environment variable %s is required", key)
	}
	return v
}
