package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort string
	JWTKey  []byte
	JWTExp  time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	UploadDir        string
	MaxUploadBytes   int64
	PostListCacheTTL time.Duration
	PostListCacheKey string
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	secret := getEnv("JWT_SECRET", "")
	if secret == "" {
		// A missing signing secret is a startup failure, not a per-request error.
		log.Fatal("JWT_SECRET must be set")
	}

	AppConfig = &Config{
		APIPort:          getEnv("API_PORT", "8080"),
		JWTKey:           []byte(secret),
		JWTExp:           time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 168)) * time.Hour, // 7 days
		DBHost:           getEnv("DB_HOST", "localhost"),
		DBPort:           getEnv("DB_PORT", "5432"),
		DBUser:           getEnv("DB_USER", "user"),
		DBPassword:       getEnv("DB_PASSWORD", "password"),
		DBName:           getEnv("DB_NAME", "herblog_db"),
		DBSslMode:        getEnv("DB_SSLMODE", "disable"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getEnvAsInt("REDIS_DB", 0),
		UploadDir:        getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadBytes:   int64(getEnvAsInt("MAX_UPLOAD_MB", 5)) * 1024 * 1024,
		PostListCacheTTL: time.Duration(getEnvAsInt("POST_LIST_CACHE_TTL_SECONDS", 30)) * time.Second,
		PostListCacheKey: getEnv("POST_LIST_CACHE_KEY", "posts:list"),
	}

	AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSslMode
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
