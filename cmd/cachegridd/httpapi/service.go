// Package httpapi is cachegridd's HTTP control surface: the JSON/WebSocket
// counterpart to the RESP listener, covering command dispatch, pub/sub, and
// instance/node/plan provisioning (spec §4.8, §6).
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/R3E-Network/cachegrid/infrastructure/logging"
	"github.com/R3E-Network/cachegrid/infrastructure/middleware"
	"github.com/R3E-Network/cachegrid/infrastructure/ratelimit"
	"github.com/R3E-Network/cachegrid/infrastructure/security"
	"github.com/R3E-Network/cachegrid/internal/provisioning"
	"github.com/R3E-Network/cachegrid/internal/resp"
)

// idempotencyWindow bounds how long an "Idempotency-Key" header is
// remembered for /cache/command and /cache/pipeline, guarding against a
// caller's retried POST re-applying the same mutation twice.
const idempotencyWindow = 5 * time.Minute

// Config wires a Service to the rest of the node.
type Config struct {
	Provisioning *provisioning.Manager
	MutationHook resp.MutationHook
	JWTSecret    string
	RateLimit    ratelimit.RateLimitConfig
	Logger       *logging.Logger
}

// Service is cachegridd's HTTP control surface.
type Service struct {
	cfg    Config
	log    *logging.Logger
	auth   *authenticator
	replay *security.ReplayProtection
}

// New builds a Service from cfg.
func New(cfg Config) *Service {
	log := cfg.Logger
	if log == nil {
		log = logging.NewFromEnv("cachegridd-httpapi")
	}
	return &Service{
		cfg:    cfg,
		log:    log,
		auth:   newAuthenticator(cfg.JWTSecret),
		replay: security.NewReplayProtection(idempotencyWindow, log),
	}
}

// Router builds the full HTTP handler: gin routes for the control surface,
// wrapped from the outside with the same net/http-style middleware stack the
// teacher layers around its own httpapi handler (recovery, security headers,
// body limits, rate limiting).
func (s *Service) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	cache := r.Group("/cache")
	{
		cache.POST("/command", s.handleCommand)
		cache.POST("/pipeline", s.handlePipeline)
		cache.GET("/pubsub", s.handlePubSub)
		cache.GET("/config", s.handleConfig)
		cache.GET("/info", s.handleInfo)
	}

	r.GET("/plans", s.handlePlans)

	instances := r.Group("/instances")
	instances.Use(s.auth.middleware())
	{
		instances.POST("", s.handleCreateInstance)
		instances.GET("", s.handleListInstances)
		instances.DELETE("/:id", s.handleDeleteInstance)
	}

	nodes := r.Group("/nodes")
	nodes.Use(s.auth.middleware())
	{
		nodes.POST("", s.handleRegisterNode)
		nodes.GET("", s.handleListNodes)
	}

	var handler http.Handler = r
	rl := middleware.NewRateLimiter(int(s.cfg.RateLimit.RequestsPerSecond), s.cfg.RateLimit.Burst, s.log)
	handler = rl.Handler(handler)
	handler = middleware.NewBodyLimitMiddleware(0).Handler(handler)
	handler = middleware.NewSecurityHeadersMiddleware(nil).Handler(handler)
	handler = middleware.NewRecoveryMiddleware(s.log).Handler(handler)
	return handler
}
