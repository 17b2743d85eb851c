package config

import (
	"os"
	"strconv"
)

// DatabaseConfig Postgres 连接配置（归档快照用）
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// Config asbuilt-data（HTTP API）配置
type Config struct {
	HTTP struct {
		Addr string
	}
	DBEnabled bool
	Database  DatabaseConfig
	Redis     struct {
		Addr     string
		Password string
		DB       int
	}
	Log struct {
		Level  string
		Format string
	}
	Imaging ImagingConfig
}

// ImagingConfig 照片转码协作方配置
// HttpAddress 为空时使用本地回退（原样 data URL）
type ImagingConfig struct {
	HttpAddress  string
	MaxDimension int
	Quality      int
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	// Default to false for local dev: the archive is optional, the document
	// store alone covers the editing workflow.
	cfg.DBEnabled = getEnv("DB_ENABLED", "false") == "true"
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "asbuilt")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.Imaging.HttpAddress = getEnv("IMAGING_HTTP_ADDRESS", "")
	cfg.Imaging.MaxDimension = parseInt(getEnv("IMAGING_MAX_DIMENSION", "1600"), 1600)
	cfg.Imaging.Quality = parseInt(getEnv("IMAGING_QUALITY", "80"), 80)

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
