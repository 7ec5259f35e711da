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
	Redis       RedisConfig
	DB          DBConfig
	Consumption ConsumptionConfig
	Gateway     GatewayConfig
	LogLevel    string
}

type DBConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

type ConsumptionConfig struct {
	GRPCAddr            string
	ServiceURL          string
	RecipeTotalsTTL     time.Duration
	UnconsumedMatch     string
	IngredientSeparator string
}

type GatewayConfig struct {
	Addr           string
	RateLimit      string
	AllowedOrigins []string
}

func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return Config{
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			Enabled:  getEnvBool("REDIS_ENABLED", true),
		},
		DB: DBConfig{
			DSN:          getEnv("CONSUMPTION_DSN", ""),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
		},
		Consumption: ConsumptionConfig{
			GRPCAddr:            getEnv("CONSUMPTION_GRPC_ADDR", ":50054"),
			ServiceURL:          getEnv("CONSUMPTION_SERVICE_URL", "localhost:50054"),
			RecipeTotalsTTL:     getEnvDuration("RECIPE_TOTALS_TTL", 5*time.Minute),
			UnconsumedMatch:     getEnv("UNCONSUMED_MATCH", "first"),
			IngredientSeparator: getEnvRaw("INGREDIENT_SEPARATOR", " - "),
		},
		Gateway: GatewayConfig{
			Addr:           getEnv("GATEWAY_ADDR", ":8080"),
			RateLimit:      getEnv("RATE_LIMIT", "100-M"),
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getEnvRaw keeps surrounding whitespace, which is significant for separators.
func getEnvRaw(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	dur, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || dur <= 0 {
		return defaultValue
	}
	return dur
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
