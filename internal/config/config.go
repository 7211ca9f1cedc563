package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port    string
	DBDSN   string
	LogFile string

	// Amazon Product Advertising API credentials and endpoint.
	AmazonAccessKey   string
	AmazonSecretKey   string
	AmazonPartnerTag  string
	AmazonHost        string
	AmazonRegion      string
	AmazonMarketplace string

	// Pipeline tuning.
	FetchBatchSize      int
	DispatchMode        string // strict | capped
	DispatchConcurrency int
	DispatchMinInterval time.Duration
	DispatchMaxAttempts int
	UpdateInterval      time.Duration // 0 disables the scheduler
}

func Load() Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := Config{
		Port:    getEnv("PORT", "8080"),
		DBDSN:   getEnv("DB_DSN", "pricewatch.db"),
		LogFile: getEnv("LOG_FILE", "./pricewatch.log"),

		AmazonAccessKey:   getEnv("AMAZON_ACCESS_KEY", ""),
		AmazonSecretKey:   getEnv("AMAZON_SECRET_KEY", ""),
		AmazonPartnerTag:  getEnv("AMAZON_PARTNER_TAG", ""),
		AmazonHost:        getEnv("AMAZON_HOST", "webservices.amazon.co.uk"),
		AmazonRegion:      getEnv("AMAZON_REGION", "eu-west-1"),
		AmazonMarketplace: getEnv("AMAZON_MARKETPLACE", "www.amazon.co.uk"),

		FetchBatchSize:      getEnvInt("FETCH_BATCH_SIZE", 10),
		DispatchMode:        getEnv("DISPATCH_MODE", "strict"),
		DispatchConcurrency: getEnvInt("DISPATCH_CONCURRENCY", 3),
		DispatchMinInterval: time.Duration(getEnvInt("DISPATCH_MIN_INTERVAL_MS", 1100)) * time.Millisecond,
		DispatchMaxAttempts: getEnvInt("DISPATCH_MAX_ATTEMPTS", 5),
		UpdateInterval:      time.Duration(getEnvInt("UPDATE_INTERVAL_MINUTES", 1440)) * time.Minute,
	}

	log.Printf("[config] PORT=%s DB_DSN=%s AMAZON_HOST=%s MODE=%s BATCH=%d INTERVAL=%s",
		cfg.Port, cfg.DBDSN, cfg.AmazonHost, cfg.DispatchMode, cfg.FetchBatchSize, cfg.DispatchMinInterval)
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] %s=%q is not a number, using %d", key, v, fallback)
		return fallback
	}
	return n
}
