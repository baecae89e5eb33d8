// Package config builds the process configuration from environment
// variables so main stays lean. Every knob has a development default;
// production deployments override through AIRCOVER_* variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"aircover/pkg/domain"
	platformstrings "aircover/pkg/platform/strings"
)

// Server captures the full process configuration.
type Server struct {
	Addr     string
	AdminKey string

	JWT    JWTConfig
	Ledger LedgerConfig
	Redis  RedisConfig
	Kafka  KafkaConfig

	// RateLimitDisabled turns request rate limiting off (local/demo mode).
	RateLimitDisabled bool
}

// JWTConfig holds participant token issuance settings.
type JWTConfig struct {
	SigningKey string
	TTL        time.Duration
	Issuer     string
	Audience   string
}

// LedgerConfig holds the protocol constants the ledger runs with. Fees are
// abstract ledger units; there is no real currency attached to them.
type LedgerConfig struct {
	// GenesisAirline is admitted directly to the registry at startup,
	// bypassing the admission vote. Exactly one such admission exists.
	GenesisAirline string

	// VerificationFee is the one-time escrow credit an airline pays before
	// it may sell insurance.
	VerificationFee domain.Units

	// MaxInsurancePremium caps the chargeable premium per policy; excess
	// payment is returned as change.
	MaxInsurancePremium domain.Units

	// OracleRegistrationFee is retained by the protocol treasury when an
	// oracle registers.
	OracleRegistrationFee domain.Units

	// DiceSeed seeds the pseudo-random index generator. When empty a
	// process-local random seed is drawn at startup, which is fine for
	// single-instance deployments.
	DiceSeed string
}

// RedisConfig holds connection settings for the optional Redis-backed
// rate-limit buckets. An empty URL disables Redis entirely.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds the optional ledger-event sink settings. No seeds means
// events stay in the in-memory store only.
type KafkaConfig struct {
	Seeds []string
	Topic string
}

// Default protocol constants, overridable per environment.
const (
	DefaultVerificationFee       = domain.Units(10_000_000)
	DefaultMaxInsurancePremium   = domain.Units(1_000_000)
	DefaultOracleRegistrationFee = domain.Units(1_000_000)
)

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	return Server{
		Addr:     envOr("AIRCOVER_ADDR", ":8080"),
		AdminKey: envOr("AIRCOVER_ADMIN_KEY", "dev-admin-key-change-in-production"),
		JWT: JWTConfig{
			SigningKey: envOr("AIRCOVER_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			TTL:        envDuration("AIRCOVER_JWT_TTL", time.Hour),
			Issuer:     envOr("AIRCOVER_JWT_ISSUER", "aircover"),
			Audience:   envOr("AIRCOVER_JWT_AUDIENCE", "aircover-ledger"),
		},
		Ledger: LedgerConfig{
			GenesisAirline:        os.Getenv("AIRCOVER_GENESIS_AIRLINE"),
			VerificationFee:       envUnits("AIRCOVER_VERIFICATION_FEE", DefaultVerificationFee),
			MaxInsurancePremium:   envUnits("AIRCOVER_MAX_INSURANCE_PREMIUM", DefaultMaxInsurancePremium),
			OracleRegistrationFee: envUnits("AIRCOVER_ORACLE_REGISTRATION_FEE", DefaultOracleRegistrationFee),
			DiceSeed:              os.Getenv("AIRCOVER_DICE_SEED"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("AIRCOVER_REDIS_URL"),
			PoolSize:     envInt("AIRCOVER_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("AIRCOVER_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("AIRCOVER_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("AIRCOVER_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("AIRCOVER_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Seeds: envList("AIRCOVER_KAFKA_SEEDS"),
			Topic: envOr("AIRCOVER_KAFKA_TOPIC", "aircover.ledger.events"),
		},
		RateLimitDisabled: os.Getenv("AIRCOVER_RATELIMIT_DISABLED") == "true",
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envUnits(key string, fallback domain.Units) domain.Units {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	units, err := domain.ParseUnits(v)
	if err != nil {
		return fallback
	}
	return units
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// envList splits a comma-separated variable into trimmed, deduplicated
// entries. Repeated broker seeds would otherwise double-dial.
func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	return platformstrings.DedupeAndTrim(strings.Split(v, ","))
}
