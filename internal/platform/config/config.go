package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverMemory   = "memory"
	StoreDriverPostgres = "postgres"
	StoreDriverRemote   = "remote"

	AuthModeLocal    = "local"
	AuthModeAccounts = "accounts"
	AuthModeRemote   = "remote"
)

type Config struct {
	APIPort  string
	JWTKey   []byte
	JWTExp   time.Duration
	LogLevel string

	StoreDriver  string
	SeedDemoData bool

	AuthMode          string
	AdminEmail        string
	AdminName         string
	AdminPasswordHash string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	BackendAPIURL  string
	GatewayTimeout time.Duration

	LeaderboardQueueName      string
	LeaderboardLockTTLSeconds int
	CORSAllowedOrigins        []string

	ShutdownTimeout      time.Duration
	SessionSweepInterval time.Duration
}

var AppConfig *Config

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIPort:  getEnv("API_PORT", "8080"),
		JWTKey:   []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:   time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 12)) * time.Hour,
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StoreDriver:  strings.ToLower(getEnv("STORE_DRIVER", StoreDriverMemory)),
		SeedDemoData: getEnvAsBool("SEED_DEMO_DATA", true),

		AuthMode:          strings.ToLower(getEnv("AUTH_MODE", AuthModeLocal)),
		AdminEmail:        getEnv("ADMIN_EMAIL", "admin@codequest.io"),
		AdminName:         getEnv("ADMIN_NAME", "Admin User"),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "user"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "codequest_admin_db"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		RedisEnabled:  getEnvAsBool("REDIS_ENABLED", false),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		BackendAPIURL:  strings.TrimRight(getEnv("BACKEND_API_URL", "http://localhost:5000/api"), "/"),
		GatewayTimeout: time.Duration(getEnvAsInt("GATEWAY_TIMEOUT_SECONDS", 10)) * time.Second,

		LeaderboardQueueName:      getEnv("LEADERBOARD_QUEUE_NAME", "leaderboard_broadcast_queue"),
		LeaderboardLockTTLSeconds: getEnvAsInt("LEADERBOARD_LOCK_TTL_SECONDS", 30),
		CORSAllowedOrigins:        getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),

		ShutdownTimeout:      getEnvAsDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		SessionSweepInterval: getEnvAsDuration("SESSION_SWEEP_INTERVAL", time.Minute),
	}

	AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSslMode

	return AppConfig
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

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("15s", "1m30s").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
