// Package bootstrap builds the infrastructure clients shared by the
// commands from the loaded configuration.
package bootstrap

import (
	"time"

	"github.com/fekuna/pricewatch-service/config"
	"github.com/fekuna/pricewatch-service/pkg/broker"
	"github.com/fekuna/pricewatch-service/pkg/cache"
	"github.com/fekuna/pricewatch-service/pkg/logger"
	"github.com/fekuna/pricewatch-service/pkg/postgres"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

func LoggerConfig(cfg *config.Config) *logger.ZapLoggerConfig {
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}

	if cfg.Server.AppEnv == "development" || cfg.Server.AppEnv == "dev" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = "console"
		logConfig.Level = "debug"
	}
	return logConfig
}

func Postgres(cfg *config.Config) (*sqlx.DB, error) {
	return postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
}

// Redis returns nil when the cache is disabled or unreachable. The service
// keeps running uncached in both cases.
func Redis(cfg *config.Config, log logger.ZapLogger) *cache.RedisClient {
	if !cfg.Redis.Enabled {
		return nil
	}
	client, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("Could not connect to Redis, deals are served uncached", zap.Error(err))
		return nil
	}
	log.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
	return client
}

// Producer returns nil when no broker is configured.
func Producer(cfg *config.Config, log logger.ZapLogger) *broker.KafkaProducer {
	if !cfg.Kafka.Enabled() {
		return nil
	}
	log.Info("Kafka producer ready", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.EventsTopic))
	return broker.NewProducer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.EventsTopic,
	})
}

// AdminConsumer returns nil when no broker is configured.
func AdminConsumer(cfg *config.Config, log logger.ZapLogger) *broker.KafkaConsumer {
	if !cfg.Kafka.Enabled() {
		return nil
	}
	log.Info("Kafka admin consumer ready", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.AdminTopic))
	return broker.NewConsumer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.AdminTopic,
		GroupID: cfg.Kafka.AdminGroupID,
	})
}
