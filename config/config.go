package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Logger    LoggerConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Scrape    ScrapeConfig
	Freshness FreshnessConfig
	Duplicate DuplicateConfig
}

type ServerConfig struct {
	AppEnv   string
	GRPCPort string
	HTTPPort string
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	DealsTTL time.Duration
}

type KafkaConfig struct {
	Brokers      []string
	EventsTopic  string
	AdminTopic   string
	AdminGroupID string
}

// Enabled reports whether any broker address is configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0 && k.Brokers[0] != ""
}

// JitterRange bounds the randomized pause between dispatcher rounds.
type JitterRange struct {
	Min time.Duration
	Max time.Duration
}

type ScrapeConfig struct {
	ShopsFile   string
	CallTimeout time.Duration

	SweepLimit  int
	SweepJitter JitterRange

	BatchIterations int
	BatchPerShop    int
	BatchJitter     JitterRange

	DealJitter JitterRange

	RefreshDealsAfterRun bool
}

type FreshnessConfig struct {
	VisibleWindow time.Duration
	HiddenWindow  time.Duration
}

type DuplicateConfig struct {
	Threshold  float64
	MaxMatches int
	PoolSize   int
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:   getEnv("APP_ENV", "dev"),
			GRPCPort: getEnv("GRPC_PORT", ":8082"),
			HTTPPort: getEnv("HTTP_PORT", ":8080"),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "debug"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "localhost"),
			Port:            getEnv("POSTGRES_PORT", "5432"),
			User:            getEnv("POSTGRES_USER", "pricewatch"),
			Password:        getEnv("POSTGRES_PASSWORD", "pricewatch"),
			DBName:          getEnv("POSTGRES_DB", "pricewatch"),
			SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvInt("POSTGRES_CONN_MAX_LIFETIME", 300),
			ConnMaxIdleTime: getEnvInt("POSTGRES_CONN_MAX_IDLE_TIME", 60),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			DealsTTL: getEnvDuration("REDIS_DEALS_TTL", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:      getEnvSlice("KAFKA_BROKERS", nil),
			EventsTopic:  getEnv("KAFKA_TOPIC_PRICE_EVENTS", "pricewatch.events"),
			AdminTopic:   getEnv("KAFKA_TOPIC_ADMIN", "pricewatch.admin"),
			AdminGroupID: getEnv("KAFKA_GROUP_ADMIN", "pricewatch-admin"),
		},
		Scrape: ScrapeConfig{
			ShopsFile:   getEnv("SHOPS_FILE", "shops.json"),
			CallTimeout: getEnvDuration("SCRAPE_CALL_TIMEOUT", 15*time.Second),

			SweepLimit: getEnvInt("SWEEP_LIMIT", 1000),
			SweepJitter: JitterRange{
				Min: getEnvDuration("SWEEP_JITTER_MIN", 600*time.Millisecond),
				Max: getEnvDuration("SWEEP_JITTER_MAX", 1500*time.Millisecond),
			},

			BatchIterations: getEnvInt("BATCH_ITERATIONS", 50),
			BatchPerShop:    getEnvInt("BATCH_PER_SHOP", 5),
			BatchJitter: JitterRange{
				Min: getEnvDuration("BATCH_JITTER_MIN", time.Second),
				Max: getEnvDuration("BATCH_JITTER_MAX", 4*time.Second),
			},

			DealJitter: JitterRange{
				Min: getEnvDuration("DEAL_JITTER_MIN", 600*time.Millisecond),
				Max: getEnvDuration("DEAL_JITTER_MAX", 2*time.Second),
			},

			RefreshDealsAfterRun: getEnvBool("REFRESH_DEALS_AFTER_RUN", true),
		},
		Freshness: FreshnessConfig{
			VisibleWindow: getEnvDuration("STALE_VISIBLE", 12*time.Hour),
			HiddenWindow:  getEnvDuration("STALE_HIDDEN", 72*time.Hour),
		},
		Duplicate: DuplicateConfig{
			Threshold:  getEnvFloat("DUPLICATE_THRESHOLD", 0.3),
			MaxMatches: getEnvInt("DUPLICATE_MAX_MATCHES", 10),
			PoolSize:   getEnvInt("DUPLICATE_POOL_SIZE", 50),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts Go duration strings ("1500ms", "12h").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return fallback
}
