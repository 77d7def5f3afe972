// Command cachegridd runs one cachegrid node: the RESP listener, the HTTP
// control surface, the internal control port (heartbeat/healthz/metrics),
// and the append-only log, replication, regional routing, and provisioning
// subsystems that back them (spec §4, §6).
package main

import (
	"context"
	goerrors "errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/R3E-Network/cachegrid/cmd/cachegridd/httpapi"
	"github.com/R3E-Network/cachegrid/infrastructure/config"
	"github.com/R3E-Network/cachegrid/infrastructure/logging"
	"github.com/R3E-Network/cachegrid/infrastructure/marble"
	"github.com/R3E-Network/cachegrid/infrastructure/metrics"
	"github.com/R3E-Network/cachegrid/infrastructure/middleware"
	"github.com/R3E-Network/cachegrid/infrastructure/security"
	"github.com/R3E-Network/cachegrid/infrastructure/utils"
	"github.com/R3E-Network/cachegrid/internal/aof"
	"github.com/R3E-Network/cachegrid/internal/cluster"
	"github.com/R3E-Network/cachegrid/internal/engine"
	"github.com/R3E-Network/cachegrid/internal/provisioning"
	provstore "github.com/R3E-Network/cachegrid/internal/provisioning/store"
	"github.com/R3E-Network/cachegrid/internal/regionalrouter"
	"github.com/R3E-Network/cachegrid/internal/replication"
	"github.com/R3E-Network/cachegrid/internal/resp"
	"github.com/R3E-Network/cachegrid/internal/secrets"
	"github.com/R3E-Network/cachegrid/internal/tee"
)

func main() {
	cfg := loadConfig()
	log := logging.NewFromEnv("cachegridd")
	ctx := context.Background()

	m, err := marble.New(marble.Config{MarbleType: "cachegridd", UUID: cfg.NodeID})
	if err != nil {
		fatal(log, "init marble identity", err)
	}

	secretChain := buildSecretChain(m, cfg, log)
	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" {
		if v, ok := secretChain.Resolve(ctx, "CACHEGRID_JWT_SECRET"); ok {
			jwtSecret = v
		}
	}

	eng := engine.New(engine.Config{
		MaxMemoryBytes: cfg.MaxMemoryBytes,
		MaxTTL:         cfg.MaxTTL,
		Eviction:       engine.EvictionLRU,
	})
	defer eng.Close()

	writer, err := aof.Open(aof.Config{Path: cfg.AOFPath, Policy: cfg.AOFPolicy, Logger: log})
	if err != nil {
		fatal(log, "open append-only log", err)
	}
	defer writer.Close()

	replayResult, err := aof.Replay(cfg.AOFPath, eng)
	if err != nil {
		fatal(log, "replay append-only log", err)
	}
	log.Info(ctx, "aof replay complete", map[string]interface{}{
		"applied": replayResult.Applied, "skipped": replayResult.Skipped,
	})

	ring := cluster.New(cluster.DefaultVnodesPerNode)
	ring.AddNode(cfg.NodeID)

	repl := replication.New(replication.Config{
		Mode:        replication.Mode(cfg.ReplicationMode),
		SyncTimeout: cfg.ReplicationSyncTimeout,
		Logger:      log,
	}, ring)
	defer repl.Close()

	router := regionalrouter.New(regionalrouter.Config{LocalRegion: cfg.Region, Logger: log}, ring)
	defer router.Stop()
	router.RegisterNode(cfg.NodeID, regionalrouter.NodeInfo{Region: cfg.Region, Tier: "standard"}, nil)

	for _, p := range cfg.Peers {
		replica := replication.NewReplica(p.NodeID, p.Addr, cfg.CircuitBreaker)
		repl.RegisterReplica(replica)
		ring.AddNode(p.NodeID)
		router.RegisterNode(p.NodeID, regionalrouter.NodeInfo{Region: p.Region, Tier: "standard"}, replica)
	}

	var persister provisioning.Persister
	if cfg.DatabaseURL != "" {
		st, err := provstore.Open(cfg.DatabaseURL)
		if err != nil {
			// The DSN itself may carry credentials; never let it reach the
			// log verbatim.
			fatal(log, "open provisioning store", goerrors.New(security.SanitizeError(err)))
		}
		defer st.Close()
		persister = st
	}

	provMgr := provisioning.New(provisioning.Config{
		SharedEngine:     eng,
		TEEProvider:      tee.NewProvider(m),
		Persister:        persister,
		HeartbeatTimeout: cfg.HeartbeatTimeout,
		Logger:           log,
	})
	defer provMgr.Stop()

	if persister != nil {
		if err := provMgr.LoadFromStore(ctx); err != nil {
			log.Warn(ctx, "restore provisioning metadata failed", map[string]interface{}{"error": err.Error()})
		}
	}

	hook := newMutationHook(writer, repl, time.Now, log)

	resp.SetAuthPassword(cfg.RESPPassword)

	respServer := &resp.Server{
		Addr:       cfg.RESPAddr,
		Resolve:    provMgr.EngineForNamespace,
		OnMutation: hook,
		Logger:     log,
	}
	utils.SafeGo(func() {
		if err := respServer.ListenAndServe(); err != nil {
			log.Error(ctx, "resp listener stopped", err, nil)
		}
	}, func(panicErr error) { log.Error(ctx, "resp listener panicked", panicErr, nil) })
	log.Info(ctx, "resp listener started", map[string]interface{}{"addr": cfg.RESPAddr})

	httpSvc := httpapi.New(httpapi.Config{
		Provisioning: provMgr,
		MutationHook: hook,
		JWTSecret:    jwtSecret,
		RateLimit:    cfg.HTTPRateLimit,
		Logger:       log,
	})
	httpServer := &http.Server{Addr: cfg.HTTPAddr, Handler: httpSvc.Router()}
	utils.SafeGo(func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "http control surface stopped", err, nil)
		}
	}, func(panicErr error) { log.Error(ctx, "http control surface panicked", panicErr, nil) })
	log.Info(ctx, "http control surface started", map[string]interface{}{"addr": cfg.HTTPAddr})

	internalServer := &http.Server{Addr: cfg.InternalAddr, Handler: newInternalRouter(provMgr, log)}
	utils.SafeGo(func() {
		if err := internalServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "internal control port stopped", err, nil)
		}
	}, func(panicErr error) { log.Error(ctx, "internal control port panicked", panicErr, nil) })
	log.Info(ctx, "internal control port started", map[string]interface{}{"addr": cfg.InternalAddr})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info(ctx, "shutting down", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = respServer.Shutdown(shutdownCtx)
	_ = httpServer.Shutdown(shutdownCtx)
	_ = internalServer.Shutdown(shutdownCtx)
}

// newInternalRouter wires the heartbeat receiver, /healthz, and /metrics
// endpoints onto the separate internal control port (SPEC_FULL's DOMAIN
// STACK table: go-chi for the low-traffic operational surface).
func newInternalRouter(provMgr *provisioning.Manager, log *logging.Logger) http.Handler {
	r := chi.NewRouter()

	health := middleware.NewHealthChecker("cachegridd")
	health.RegisterCheck("provisioning", func() error { return nil })
	r.Get("/healthz", health.Handler())

	if metrics.Enabled() {
		metrics.Init("cachegridd")
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Post("/internal/nodes/{nodeID}/heartbeat", func(w http.ResponseWriter, req *http.Request) {
		nodeID := chi.URLParam(req, "nodeID")
		if err := provMgr.Heartbeat(nodeID, nil); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	return r
}

// buildSecretChain resolves sensitive settings (the control surface's JWT
// signing secret, node registration tokens) from env/Marble first, falling
// back to Azure Key Vault when CACHEGRID_KEYVAULT_URL is set (SPEC_FULL's
// DOMAIN STACK table: Azure SDK as the real cloud-secrets option).
func buildSecretChain(m *marble.Marble, cfg nodeConfig, log *logging.Logger) *secrets.Chain {
	sources := []secrets.Source{secrets.EnvMarbleSource{Marble: m}}
	if vaultURL := cfg.KeyVaultURL; vaultURL != "" {
		kv, err := secrets.NewAzureKeyVaultSource(vaultURL, log)
		if err != nil {
			log.Warn(context.Background(), "key vault unavailable, falling back to env/marble secrets", map[string]interface{}{"error": err.Error()})
		} else {
			sources = append(sources, kv)
		}
	}
	return secrets.NewChain(sources...)
}

func fatal(log *logging.Logger, msg string, err error) {
	log.Error(context.Background(), msg, err, nil)
	os.Exit(1)
}

// peer names a statically configured remote node to replicate to and probe,
// read from CACHEGRID_PEERS as "nodeID@host:port[#region]" entries.
type peer struct {
	NodeID string
	Addr   string
	Region string
}

func parsePeers(raw string) []peer {
	var peers []peer
	for _, entry := range config.SplitAndTrimCSV(raw) {
		at := strings.Index(entry, "@")
		if at < 0 {
			continue
		}
		nodeID := entry[:at]
		rest := entry[at+1:]
		region := ""
		if parts := strings.SplitN(rest, "#", 2); len(parts) == 2 {
			rest, region = parts[0], parts[1]
		}
		peers = append(peers, peer{NodeID: nodeID, Addr: rest, Region: region})
	}
	return peers
}
