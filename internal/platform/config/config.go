// Package config builds process configuration from environment variables so
// main stays lean.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the server needs at startup.
type Config struct {
	Addr string

	// OntologyPath points at the YAML ontology definition.
	OntologyPath string

	// PostgresURL enables the durable audit store when set; empty means
	// the in-memory store.
	PostgresURL string

	// KafkaBrokers enables audit event streaming when non-empty.
	KafkaBrokers []string
	AuditTopic   string

	// AuditSigningSecret signs audit events per session; empty disables
	// signatures. AttestationSecret signs audit reports.
	AuditSigningSecret string
	AttestationSecret  string

	// MinConfidence is the matcher's confidence floor.
	MinConfidence float64

	Redis RedisConfig
}

// RedisConfig captures the optional match-cache backend.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:               envOr("VERITRAIL_ADDR", ":8080"),
		OntologyPath:       envOr("VERITRAIL_ONTOLOGY_PATH", "ontology.yaml"),
		PostgresURL:        os.Getenv("VERITRAIL_POSTGRES_URL"),
		AuditTopic:         envOr("VERITRAIL_AUDIT_TOPIC", "veritrail.audit.events"),
		AuditSigningSecret: os.Getenv("VERITRAIL_AUDIT_SIGNING_SECRET"),
		AttestationSecret:  os.Getenv("VERITRAIL_ATTESTATION_SECRET"),
		MinConfidence:      envFloat("VERITRAIL_MIN_CONFIDENCE", 0.7),
		Redis: RedisConfig{
			URL:          os.Getenv("VERITRAIL_REDIS_URL"),
			PoolSize:     envInt("VERITRAIL_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("VERITRAIL_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("VERITRAIL_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("VERITRAIL_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("VERITRAIL_REDIS_WRITE_TIMEOUT", 3*time.Second),
			CacheTTL:     envDuration("VERITRAIL_MATCH_CACHE_TTL", time.Hour),
		},
	}

	if brokers := os.Getenv("VERITRAIL_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
