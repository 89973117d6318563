package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration. Registry protocol parameters
// (base price, claim period, minimum length) are constants of the protocol,
// not configuration; see internal/registry/models.
type Server struct {
	Addr          string
	JWTSigningKey string

	// Treasury is the hex identity escrowed registration fees are held by.
	Treasury string

	// PostgresURL switches the ledgers and event log from memory to
	// Postgres when set.
	PostgresURL string

	// RedisURL switches the ordering guard from memory to Redis when set.
	RedisURL string

	// KafkaBrokers enables the event fan-out worker when non-empty.
	KafkaBrokers []string
	KafkaTopic   string

	// FaucetWei is minted to an identity each time it obtains a dev token,
	// so a fresh deployment can register names without an external
	// settlement system. "0" disables the faucet.
	FaucetWei string

	ShutdownTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("NAMEGATE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	treasury := os.Getenv("NAMEGATE_TREASURY")
	if treasury == "" {
		treasury = "0x000000000000000000000000000000000000f00d"
	}

	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		topic = "namegate.registry.events"
	}

	faucet := os.Getenv("NAMEGATE_FAUCET_WEI")
	if faucet == "" {
		// 10 units of native currency, enough for a handful of
		// registrations at the base price.
		faucet = "10000000000000000000"
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	return Server{
		Addr:            addr,
		JWTSigningKey:   jwtSigningKey,
		Treasury:        treasury,
		PostgresURL:     os.Getenv("POSTGRES_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		KafkaBrokers:    brokers,
		KafkaTopic:      topic,
		FaucetWei:       faucet,
		ShutdownTimeout: 10 * time.Second,
	}
}
