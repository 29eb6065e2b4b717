// Package config provides configuration structures and validation for the
// ledger service. It handles environment-based configuration for all major
// components including the HTTP server, database connections, the audit
// message pipeline, and ledger-specific operational parameters.
package config

import (
	"errors"
	"strings"
	"time"
)

// Config holds the complete application configuration. Each field covers a
// major subsystem and is validated during startup.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Outbox      OutboxConfig
	WorkerPool  WorkerPoolConfig
	Ledger      LedgerConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port            int           // Port to listen on
	ShutdownTimeout time.Duration // Grace period for server shutdown
	ReadTimeout     time.Duration // Maximum duration for reading entire request
	WriteTimeout    time.Duration // Maximum duration for writing response
	IdleTimeout     time.Duration // Maximum duration to wait for next request
}

// PostgresConfig contains PostgreSQL configuration
type PostgresConfig struct {
	URL             string        // Database connection string
	MaxConns        int32         // Maximum number of open connections
	MinConns        int32         // Minimum number of idle connections
	ConnMaxLifetime time.Duration // Maximum lifetime of a connection
	ConnMaxIdleTime time.Duration // Maximum idle time of a connection
	MigrationsPath  string        // Path to migration files
}

// MongoDBConfig contains MongoDB configuration for the audit archive
type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// RedisConfig contains Redis configuration for the balance cache.
// Redis is optional: an empty Addr disables the cache entirely.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig contains Kafka configuration for the audit event pipeline
type KafkaConfig struct {
	Brokers           string
	AuditTopic        string
	NumPartitions     int // Number of partitions for topics
	ReplicationFactor int // Replication factor for topics
	ConsumerGroup     string
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	StartOffset       int64
	DLQTopic          string // Topic for Dead Letter Queue
}

// OutboxConfig contains outbox pattern configuration
type OutboxConfig struct {
	PollingInterval  time.Duration
	BatchSize        int
	MaxRetryAttempts int // Maximum number of retry attempts for outbox messages
}

// WorkerPoolConfig contains archiver worker pool configuration
type WorkerPoolConfig struct {
	Size int // Maximum number of workers in the pool
}

// LedgerConfig contains ledger-specific operational parameters
type LedgerConfig struct {
	LockTimeout     time.Duration // Per-owner mutation lock acquisition timeout
	BalanceCacheTTL time.Duration // TTL of cached balances in Redis
}

// validator accumulates violations so a misconfigured deployment reports
// everything wrong in one pass instead of one restart per mistake.
type validator struct {
	violations []string
}

func (v *validator) required(key, value string) {
	if value == "" {
		v.violations = append(v.violations, key+" is required")
	}
}

func (v *validator) positive(key string, value int64) {
	if value <= 0 {
		v.violations = append(v.violations, key+" must be greater than 0")
	}
}

func (v *validator) err() error {
	if len(v.violations) == 0 {
		return nil
	}
	return errors.New(strings.Join(v.violations, ", "))
}

// validate checks every section. Redis is deliberately absent: an empty
// REDIS_ADDR just disables the balance cache.
func (c *Config) validate() error {
	v := &validator{}

	v.positive("SERVER_PORT", int64(c.Server.Port))
	v.positive("SERVER_SHUTDOWN_TIMEOUT", int64(c.Server.ShutdownTimeout))
	v.positive("SERVER_READ_TIMEOUT", int64(c.Server.ReadTimeout))
	v.positive("SERVER_WRITE_TIMEOUT", int64(c.Server.WriteTimeout))
	v.positive("SERVER_IDLE_TIMEOUT", int64(c.Server.IdleTimeout))

	v.required("POSTGRES_URL", c.Postgres.URL)
	v.positive("POSTGRES_MAX_CONNS", int64(c.Postgres.MaxConns))
	v.positive("POSTGRES_MIN_CONNS", int64(c.Postgres.MinConns))
	v.positive("POSTGRES_MAX_CONN_LIFETIME", int64(c.Postgres.ConnMaxLifetime))
	v.positive("POSTGRES_MAX_CONN_IDLE_TIME", int64(c.Postgres.ConnMaxIdleTime))

	v.required("MONGO_URI", c.MongoDB.URI)
	v.required("MONGO_DATABASE", c.MongoDB.Database)
	v.positive("MONGO_TIMEOUT", int64(c.MongoDB.Timeout))
	v.positive("MONGO_MAX_POOL_SIZE", int64(c.MongoDB.MaxPoolSize))
	v.positive("MONGO_MIN_POOL_SIZE", int64(c.MongoDB.MinPoolSize))
	v.positive("MONGO_MAX_CONN_IDLE_TIME", int64(c.MongoDB.MaxConnIdleTime))

	v.required("KAFKA_BROKERS", c.Kafka.Brokers)
	v.required("KAFKA_AUDIT_TOPIC", c.Kafka.AuditTopic)
	v.required("KAFKA_CONSUMER_GROUP", c.Kafka.ConsumerGroup)
	v.positive("KAFKA_CONSUMER_MIN_BYTES", int64(c.Kafka.MinBytes))
	v.positive("KAFKA_CONSUMER_MAX_BYTES", int64(c.Kafka.MaxBytes))
	v.positive("KAFKA_CONSUMER_MAX_WAIT", int64(c.Kafka.MaxWait))
	v.required("KAFKA_DLQ_TOPIC", c.Kafka.DLQTopic)

	v.positive("OUTBOX_POLLING_INTERVAL", int64(c.Outbox.PollingInterval))
	v.positive("OUTBOX_BATCH_SIZE", int64(c.Outbox.BatchSize))
	v.positive("OUTBOX_MAX_RETRY_ATTEMPTS", int64(c.Outbox.MaxRetryAttempts))

	v.positive("WORKER_POOL_SIZE", int64(c.WorkerPool.Size))

	v.positive("LEDGER_LOCK_TIMEOUT", int64(c.Ledger.LockTimeout))
	v.positive("LEDGER_BALANCE_CACHE_TTL", int64(c.Ledger.BalanceCacheTTL))

	return v.err()
}
