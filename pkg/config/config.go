package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	CacheBackendMemory = "memory"
	CacheBackendSQLite = "sqlite"
	CacheBackendMongo  = "mongo"
)

type Config struct {
	ServerPort   string
	SiteHostname string
	BaseURL      string

	HTTPTimeout      time.Duration
	RetryAttempts    int
	RetryBackoff     time.Duration
	BreakerThreshold int

	CacheTTL       time.Duration
	CacheNamespace string
	CacheBackend   string
	PurgeOnStart   bool
	SQLitePath     string
	MongoURI       string
	MongoDBName    string
	MongoColl      string

	KafkaBrokers    []string
	KafkaPurgeTopic string

	OTLPEndpoint string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	hostname := getEnv("SITE_HOSTNAME", "")

	cfg := &Config{
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		SiteHostname:     hostname,
		BaseURL:          ResolveBaseURL(os.LookupEnv, hostname),
		HTTPTimeout:      getDurationEnv("HTTP_TIMEOUT", 15*time.Second),
		RetryAttempts:    getIntEnv("RETRY_ATTEMPTS", 2),
		RetryBackoff:     getDurationEnv("RETRY_BACKOFF", time.Second),
		BreakerThreshold: getIntEnv("BREAKER_THRESHOLD", 5),
		CacheTTL:         getDurationEnv("CACHE_TTL", 5*time.Minute),
		CacheNamespace:   getEnv("CACHE_NAMESPACE", "newsflow_cache_"),
		CacheBackend:     strings.ToLower(getEnv("CACHE_BACKEND", CacheBackendMemory)),
		PurgeOnStart:     getBoolEnv("PURGE_ON_START", true),
		SQLitePath:       getEnv("SQLITE_PATH", "data/newsflow-cache.db"),
		MongoURI:         getEnv("MONGO_URI", "mongodb://mongodb:27017"),
		MongoDBName:      getEnv("MONGO_DB_NAME", "newsflow"),
		MongoColl:        getEnv("MONGO_COLLECTION", "response_cache"),
		KafkaBrokers:     splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaPurgeTopic:  getEnv("KAFKA_PURGE_TOPIC", "newsflow_cache_purge"),
		OTLPEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
	return cfg
}

// KafkaEnabled reports whether purge events should be broadcast.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0 && c.KafkaPurgeTopic != ""
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

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		// Try parsing as duration string (e.g. "1m", "60s")
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		// Try parsing as integer seconds
		if i, err := strconv.Atoi(value); err == nil {
			return time.Duration(i) * time.Second
		}
	}
	return fallback
}
