package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	ListenAddr      string        // ex: "127.0.0.1:8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	StorageBackend string // "memory" | "file" | "redis"
	DataDir        string // file backend directory (default: ./data)

	CacheTTL      time.Duration // cache entry time-to-live (default: 5m)
	SweepInterval time.Duration // expired-entry sweep interval (default: 10m)

	DevMode    bool   // unlocks debug endpoints and force-migration
	ImportFile string // path to the bookmark import yaml (optional, empty = import disabled)

	// Redis (only read when StorageBackend == "redis")
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenAddr:      getenv("LINKMAN_LISTEN_ADDR", "127.0.0.1:8080"),
		ShutdownTimeout: mustDuration("LINKMAN_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("LINKMAN_LOG_LEVEL", "info"),
		PrettyLog: mustBool("LINKMAN_PRETTY_LOG", true),

		// Storage
		StorageBackend: getenv("LINKMAN_STORAGE_BACKEND", "memory"),
		DataDir:        getenv("LINKMAN_DATA_DIR", "./data"),

		// Cache
		CacheTTL:      mustDuration("LINKMAN_CACHE_TTL", 5*time.Minute),
		SweepInterval: mustDuration("LINKMAN_SWEEP_INTERVAL", 10*time.Minute),

		DevMode:    mustBool("LINKMAN_DEV_MODE", false),
		ImportFile: getenv("LINKMAN_IMPORT_FILE", ""), // Optional, empty = import disabled
	}

	switch cfg.StorageBackend {
	case "memory", "file":
	case "redis":
		// Redis settings are only required for the redis backend
		cfg.RedisAddr = requireEnv("LINKMAN_REDIS_ADDR")
		cfg.RedisUser = getenv("LINKMAN_REDIS_USERNAME", "default")
		cfg.RedisPasswordRequired = mustBool("LINKMAN_REDIS_PASSWORD_REQUIRED", true)
		cfg.RedisPassword = getenv("LINKMAN_REDIS_PASSWORD", "")
		cfg.RedisDB = getenvInt("LINKMAN_REDIS_DB", 0)
		cfg.RedisDT = mustDuration("LINKMAN_REDIS_DIAL_TIMEOUT", 5*time.Second)
		cfg.RedisRT = mustDuration("LINKMAN_REDIS_READ_TIMEOUT", 3*time.Second)
		cfg.RedisWT = mustDuration("LINKMAN_REDIS_WRITE_TIMEOUT", 3*time.Second)
		cfg.RedisMaxWait = mustDuration("LINKMAN_REDIS_MAX_WAIT", 10*time.Second)
		cfg.RedisPingTimeout = mustDuration("LINKMAN_REDIS_PING_TIMEOUT", 5*time.Second)
		cfg.RedisPoolSize = getenvInt("LINKMAN_REDIS_POOL_SIZE", 10)
		cfg.RedisConnectTimeout = mustDuration("LINKMAN_REDIS_CONNECT_TIMEOUT", 30*time.Second)
		cfg.RedisRetryInterval = mustDuration("LINKMAN_REDIS_RETRY_INTERVAL", 2*time.Second)

		if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
			panic("❌ FATAL: LINKMAN_REDIS_PASSWORD is required when LINKMAN_REDIS_PASSWORD_REQUIRED=true")
		}
	default:
		panic(fmt.Sprintf("❌ FATAL: Unknown LINKMAN_STORAGE_BACKEND %q (expected memory, file or redis)", cfg.StorageBackend))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
