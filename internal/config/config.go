package config

import (
	"fmt"
	"time"
)

// Record sources
const (
	SourceCSV = "csv"
	SourceDB  = "db"
)

// AppConfig holds every setting of the CLI and the web server
type AppConfig struct {
	Source   string
	Data     DataConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Web      WebConfig
	Log      LogConfig
	Debug    bool
}

// DataConfig describes where extracts are read from
type DataConfig struct {
	Dir        string
	Extensions []string
	Workers    int
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Driver         string
	DSN            string
	MaxConnections int
	Table          string
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// CacheConfig selects the result cache used by the web server
type CacheConfig struct {
	Backend string // memory, redis or none
	TTL     time.Duration
}

// WebConfig contains HTTP server settings
type WebConfig struct {
	Host         string
	Port         int
	SearchRate   float64 // searches per second, 0 disables limiting
	SearchBurst  int
	ExportEnable bool
	APIKey       string
}

// LogConfig contains logger settings
type LogConfig struct {
	Level  string
	Format string
}

// Load builds the configuration from the environment
func Load() *AppConfig {
	return &AppConfig{
		Source: GetEnv("COWORK_SOURCE", SourceCSV),
		Data: DataConfig{
			Dir:        GetEnv("DATA_DIR", "Dataframes"),
			Extensions: GetEnvList("DATA_EXTENSIONS", []string{".csv", ".csv.gz"}),
			Workers:    GetEnvInt("DATA_WORKERS", 4),
		},
		Database: DatabaseConfig{
			Driver:         GetEnv("DB_DRIVER", "postgres"),
			DSN:            GetEnv("DB_DSN", postgresDSN()),
			MaxConnections: GetEnvInt("DB_MAX_CONNECTIONS", 10),
			Table:          GetEnv("DB_TABLE", "estabelecimento"),
		},
		Redis: RedisConfig{
			Addr:     GetEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetEnvInt("REDIS_DB", 0),
		},
		Cache: CacheConfig{
			Backend: GetEnv("CACHE_BACKEND", "memory"),
			TTL:     GetEnvDuration("CACHE_TTL", 30*time.Minute),
		},
		Web: WebConfig{
			Host:         GetEnv("WEB_HOST", "localhost"),
			Port:         GetEnvInt("WEB_PORT", 8080),
			SearchRate:   float64(GetEnvInt("SEARCH_RATE_LIMIT", 5)),
			SearchBurst:  GetEnvInt("SEARCH_RATE_BURST", 10),
			ExportEnable: GetEnvBool("ENABLE_EXPORT", true),
			APIKey:       GetEnv("WEB_API_KEY", ""),
		},
		Log: LogConfig{
			Level:  GetEnv("LOG_LEVEL", "info"),
			Format: GetEnv("LOG_FORMAT", "text"),
		},
		Debug: GetEnvBool("DEBUG", false),
	}
}

// postgresDSN builds a PostgreSQL DSN from the libpq style PG* variables
func postgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		GetEnv("PGHOST", "localhost"),
		GetEnv("PGPORT", "5432"),
		GetEnv("PGUSER", "postgres"),
		GetEnv("PGPASSWORD", "postgres"),
		GetEnv("PGDATABASE", "cnpj"),
		GetEnv("PGSSLMODE", "disable"),
	)
}
