package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	SQLitePath string
	MongoURI   string

	RedisAddr  string
	CatalogTTL time.Duration

	JWTSecret string
	JWTTTL    time.Duration

	ServerPort  string
	LogMode     string
	CORSOrigins string

	AssetBucket     string
	AssetPublicBase string

	LedgerMaxRetries   int
	AssignmentAttempts int
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, using environment variables")
	}

	return &Config{
		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "learnhub"),
		SQLitePath: getEnv("SQLITE_PATH", "learnhub.db"),
		MongoURI:   getEnv("MONGO_URI", "mongodb://localhost:27017"),

		RedisAddr:  getEnv("REDIS_ADDR", ""),
		CatalogTTL: getDuration("CATALOG_TTL", 5*time.Minute),

		JWTSecret: getEnv("JWT_SECRET", "secret"),
		JWTTTL:    getDuration("JWT_TTL", 72*time.Hour),

		ServerPort:  getEnv("SERVER_PORT", "8080"),
		LogMode:     getEnv("LOG_MODE", "dev"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),

		AssetBucket:     getEnv("ASSET_BUCKET", ""),
		AssetPublicBase: getEnv("ASSET_PUBLIC_BASE", "https://storage.googleapis.com"),

		LedgerMaxRetries:   getInt("LEDGER_MAX_RETRIES", 3),
		AssignmentAttempts: getInt("ASSIGNMENT_ATTEMPTS", 0),
	}, nil
}

// PostgresDSN builds the connection string for gorm's postgres driver.
func (c *Config) PostgresDSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=disable TimeZone=UTC"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		log.Printf("invalid %s=%q, using %d", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	v, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		log.Printf("invalid %s=%q, using %s", key, raw, defaultValue)
		return defaultValue
	}
	return v
}
