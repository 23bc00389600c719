// Package config loads runtime configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

type Config struct {
	Port            string
	MongoURI        string
	MongoDBName     string
	StoreBackend    string
	RedisAddr       string
	RedisPassword   string
	CacheTTL        time.Duration
	KafkaBrokers    []string
	KafkaTopic      string
	BreakerFailures uint32
	BreakerTimeout  time.Duration
	ShutdownTimeout time.Duration
	Production      bool
}

// Load reads .env (if present) into the process environment and builds the
// configuration from it.
func Load(envFiles ...string) (*Config, error) {
	// a missing .env is fine
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "3000")
	v.SetDefault("DB_URL", "mongodb://localhost:27017")
	v.SetDefault("TEST_DB_URL", "mongodb://localhost:27017")
	v.SetDefault("ENV_DB_CHECK_TEST", "")
	v.SetDefault("MONGO_DB_NAME", "productdb")
	v.SetDefault("STORE_BACKEND", BackendMongo)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("CACHE_TTL", "15m")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "product-events")
	v.SetDefault("BREAKER_MAX_FAILURES", 5)
	v.SetDefault("BREAKER_OPEN_TIMEOUT", "30s")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("LOG_ENV", "development")
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:            v.GetString("PORT"),
		MongoURI:        v.GetString("DB_URL"),
		MongoDBName:     v.GetString("MONGO_DB_NAME"),
		StoreBackend:    strings.ToLower(v.GetString("STORE_BACKEND")),
		RedisAddr:       v.GetString("REDIS_ADDR"),
		RedisPassword:   v.GetString("REDIS_PASSWORD"),
		CacheTTL:        v.GetDuration("CACHE_TTL"),
		KafkaBrokers:    splitList(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:      v.GetString("KAFKA_TOPIC"),
		BreakerFailures: v.GetUint32("BREAKER_MAX_FAILURES"),
		BreakerTimeout:  v.GetDuration("BREAKER_OPEN_TIMEOUT"),
		ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		Production:      strings.EqualFold(v.GetString("LOG_ENV"), "production"),
	}
	if v.GetString("ENV_DB_CHECK_TEST") == "TEST" {
		cfg.MongoURI = v.GetString("TEST_DB_URL")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Errorf("invalid PORT %q", c.Port))
	}
	switch c.StoreBackend {
	case BackendMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("DB_URL is required for the mongo backend"))
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}

	return errors.Join(errs...)
}

func (c *Config) CacheEnabled() bool  { return c.RedisAddr != "" }
func (c *Config) EventsEnabled() bool { return len(c.KafkaBrokers) > 0 }

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
