package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/R3E-Network/cachegrid/infrastructure/config"
	"github.com/R3E-Network/cachegrid/infrastructure/ratelimit"
	"github.com/R3E-Network/cachegrid/infrastructure/resilience"
	"github.com/R3E-Network/cachegrid/internal/aof"
)

// loadDotEnv loads a node-local .env file before flags/env vars are read, so
// an operator can keep CACHEGRID_* settings out of the process environment.
// Optional: a missing file is not an error.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: could not load .env: %v\n", err)
	}
}

// nodeConfig is cachegridd's flag/env-derived configuration. Flags take
// precedence over environment variables, matching cmd/appserver's
// resolveDSN-style "flag, then env, then default" layering.
type nodeConfig struct {
	NodeID       string
	Region       string
	RESPAddr     string
	HTTPAddr     string
	InternalAddr string

	AOFPath   string
	AOFPolicy aof.FsyncPolicy

	MaxMemoryBytes int64
	MaxTTL         time.Duration

	ReplicationMode       string
	ReplicationSyncTimeout time.Duration
	Peers                  []peer

	DatabaseURL      string
	HeartbeatTimeout time.Duration

	JWTSecret      string
	RESPPassword   string
	KeyVaultURL    string
	HTTPRateLimit  ratelimit.RateLimitConfig
	CircuitBreaker resilience.Config
}

func loadConfig() nodeConfig {
	loadDotEnv()
	nodeID := flag.String("node-id", config.GetEnv("CACHEGRID_NODE_ID", ""), "this node's id (defaults to a generated uuid)")
	region := flag.String("region", config.GetEnv("CACHEGRID_REGION", "local"), "this node's region, for regional routing")
	respAddr := flag.String("resp-addr", config.GetEnv("CACHEGRID_RESP_ADDR", ":6379"), "RESP TCP listen address")
	httpAddr := flag.String("http-addr", config.GetEnv("CACHEGRID_HTTP_ADDR", ":8080"), "HTTP control surface listen address")
	internalAddr := flag.String("internal-addr", config.GetEnv("CACHEGRID_INTERNAL_ADDR", ":8081"), "internal control port listen address")
	aofPath := flag.String("aof-path", config.GetEnv("CACHEGRID_AOF_PATH", "cachegrid.aof"), "append-only log file path")
	aofPolicy := flag.String("aof-policy", config.GetEnv("CACHEGRID_AOF_POLICY", string(aof.FsyncEverysec)), "append-only log fsync policy: always, everysec, or no")
	maxMemory := flag.String("max-memory", config.GetEnv("CACHEGRID_MAX_MEMORY", "256MB"), "shared engine memory budget (e.g. 256MB, 1GiB)")
	maxTTL := flag.Duration("max-ttl", config.ParseDurationOrDefault(config.GetEnv("CACHEGRID_MAX_TTL", ""), 0), "maximum TTL accepted by the shared engine (0 = unbounded)")
	replMode := flag.String("replication-mode", config.GetEnv("CACHEGRID_REPLICATION_MODE", "none"), "replication discipline: none, async, or sync")
	replSyncTimeout := flag.Duration("replication-sync-timeout", config.ParseDurationOrDefault(config.GetEnv("CACHEGRID_REPLICATION_SYNC_TIMEOUT", "2s"), 2*time.Second), "sync-mode replication fan-out timeout")
	peersFlag := flag.String("peers", config.GetEnv("CACHEGRID_PEERS", ""), `comma-separated peer nodes as "nodeID@host:port#region"`)
	dsn := flag.String("dsn", config.GetEnv("DATABASE_URL", ""), "optional postgres DSN for provisioning metadata durability")
	heartbeatTimeout := flag.Duration("heartbeat-timeout", config.ParseDurationOrDefault(config.GetEnv("CACHEGRID_HEARTBEAT_TIMEOUT", "120s"), 120*time.Second), "node liveness timeout before the sweep marks it offline")
	jwtSecret := flag.String("jwt-secret", config.GetEnv("CACHEGRID_JWT_SECRET", ""), "HMAC secret for the HTTP control surface's bearer tokens")
	respPassword := flag.String("resp-password", config.GetEnv("CACHEGRID_RESP_PASSWORD", ""), "password RESP AUTH must match (empty disables RESP auth)")
	keyVaultURL := flag.String("keyvault-url", config.GetEnv("CACHEGRID_KEYVAULT_URL", ""), "optional Azure Key Vault URL backing the secret chain")
	rlPerSecond := flag.Float64("http-rate-limit-rps", float64(config.GetEnvInt("CACHEGRID_HTTP_RATE_LIMIT_RPS", 50)), "HTTP control surface requests/second per caller")
	rlBurst := flag.Int("http-rate-limit-burst", config.GetEnvInt("CACHEGRID_HTTP_RATE_LIMIT_BURST", 100), "HTTP control surface burst allowance per caller")
	flag.Parse()

	id := *nodeID
	if id == "" {
		id = uuid.NewString()
	}

	maxMemBytes, err := config.ParseByteSize(*maxMemory)
	if err != nil || maxMemBytes <= 0 {
		maxMemBytes = 256 << 20
	}

	cb := resilience.DefaultConfig()

	return nodeConfig{
		NodeID:       id,
		Region:       *region,
		RESPAddr:     *respAddr,
		HTTPAddr:     *httpAddr,
		InternalAddr: *internalAddr,

		AOFPath:   *aofPath,
		AOFPolicy: aof.FsyncPolicy(*aofPolicy),

		MaxMemoryBytes: maxMemBytes,
		MaxTTL:         *maxTTL,

		ReplicationMode:        *replMode,
		ReplicationSyncTimeout: *replSyncTimeout,
		Peers:                  parsePeers(*peersFlag),

		DatabaseURL:      *dsn,
		HeartbeatTimeout: *heartbeatTimeout,

		JWTSecret:    *jwtSecret,
		RESPPassword: *respPassword,
		KeyVaultURL:  *keyVaultURL,
		HTTPRateLimit: ratelimit.RateLimitConfig{
			RequestsPerSecond: *rlPerSecond,
			Burst:             *rlBurst,
		},
		CircuitBreaker: cb,
	}
}
