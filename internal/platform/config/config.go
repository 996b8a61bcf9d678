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
	StoragePostgres = "postgres"
	StorageMemory   = "memory"

	// DevJWTSecret is only used when JWT_SECRET is unset. Never deploy with it.
	DevJWTSecret = "secret_dev"
)

type Config struct {
	APIPort string

	JWTKey          []byte
	JWTExp          time.Duration
	JWTKeyIsDefault bool
	BcryptCost      int

	StorageBackend string

	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBSslMode      string
	DBConnStr      string
	DBMaxOpenConns int

	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	ReferenceCacheTTL time.Duration
	CacheWarmInterval time.Duration

	CORSAllowedOrigins []string

	RequireAuthForPostDelete bool
	EnforceOwnership         bool
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() *Config {
	secret, secretSet := os.LookupEnv("JWT_SECRET")
	if !secretSet || secret == "" {
		secret = DevJWTSecret
	}

	cfg := &Config{
		APIPort:         getEnv("API_PORT", "4000"),
		JWTKey:          []byte(secret),
		JWTKeyIsDefault: secret == DevJWTSecret,
		JWTExp:          time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 7*24)) * time.Hour,
		BcryptCost:      getEnvAsInt("BCRYPT_COST", 10),

		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", StoragePostgres)),

		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", "postgres"),
		DBName:         getEnv("DB_NAME", "companion_hub"),
		DBSslMode:      getEnv("DB_SSLMODE", "disable"),
		DBMaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),

		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvAsInt("REDIS_DB", 0),
		ReferenceCacheTTL: getEnvAsDuration("REFERENCE_CACHE_TTL", 5*time.Minute),
		CacheWarmInterval: getEnvAsDuration("CACHE_WARM_INTERVAL", 0),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		RequireAuthForPostDelete: getEnvAsBool("REQUIRE_AUTH_FOR_POST_DELETE", false),
		EnforceOwnership:         getEnvAsBool("ENFORCE_OWNERSHIP", false),
	}

	if url := getEnv("DATABASE_URL", ""); url != "" {
		cfg.DBConnStr = url
	} else {
		cfg.DBConnStr = "host=" + cfg.DBHost +
			" port=" + cfg.DBPort +
			" user=" + cfg.DBUser +
			" password=" + cfg.DBPassword +
			" dbname=" + cfg.DBName +
			" sslmode=" + cfg.DBSslMode
	}
	return cfg
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
	if len(out) == 0 {
		return fallback
	}
	return out
}
