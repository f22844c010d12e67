package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultPort         = "8080"
	DefaultDatabaseURL  = "sqlite:///./goldapp.db"
	DefaultPricePerGram = 6500.0
	DefaultLogLevel     = "info"
)

// Config is read once at startup and passed down explicitly; nothing in it
// changes while the process runs.
type Config struct {
	Port                string
	DatabaseURL         string
	PricePerGram        float64
	GoldKeywords        []string
	BuyIntentKeywords   []string
	RequireExistingUser bool
	LogLevel            string
	GinMode             string
}

// Load reads .env (if there is one) and then the process environment.
func Load() (Config, error) {
	// .env is optional, the real environment always wins
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() (Config, error) {
	cfg := Config{
		Port:              getEnv("PORT", DefaultPort),
		DatabaseURL:       getEnv("DATABASE_URL", DefaultDatabaseURL),
		PricePerGram:      DefaultPricePerGram,
		GoldKeywords:      splitList(os.Getenv("GOLD_KEYWORDS")),
		BuyIntentKeywords: splitList(os.Getenv("BUY_INTENT_KEYWORDS")),
		LogLevel:          getEnv("LOG_LEVEL", DefaultLogLevel),
		GinMode:           os.Getenv("GIN_MODE"),
	}

	if raw := strings.TrimSpace(os.Getenv("GOLD_PRICE_PER_GRAM_INR")); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Config{}, fmt.Errorf("GOLD_PRICE_PER_GRAM_INR: %w", err)
		}
		if price <= 0 {
			return Config{}, fmt.Errorf("GOLD_PRICE_PER_GRAM_INR must be positive, got %v", price)
		}
		cfg.PricePerGram = price
	}

	if raw := strings.TrimSpace(os.Getenv("REQUIRE_EXISTING_USER")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("REQUIRE_EXISTING_USER: %w", err)
		}
		cfg.RequireExistingUser = v
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	return val
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
