package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                 string
	StoreDriver          string
	DBUrl                string
	LogLevel             string
	RateLimit            float64
	RateBurst            int
	ShutdownTimeout      time.Duration
	SlowRequestThreshold time.Duration
}

func LoadConfig() Config {
	err := godotenv.Load()
	if err != nil {
		log.Println(".env file not found, using defaults")
	}

	return Config{
		Port:                 getEnv("PORT", "8080"),
		StoreDriver:          getEnv("STORE_DRIVER", "memory"),
		DBUrl:                os.Getenv("DB_URL"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		RateLimit:            getFloat("RATE_LIMIT", 10),
		RateBurst:            getInt("RATE_BURST", 20),
		ShutdownTimeout:      getDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
		SlowRequestThreshold: getDuration("SLOW_REQUEST_THRESHOLD", time.Second),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil && f > 0 {
		return f
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if i, err := strconv.Atoi(os.Getenv(key)); err == nil && i > 0 {
		return i
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return fallback
}
