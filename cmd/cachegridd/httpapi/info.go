package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/PaesslerAG/jsonpath"
	"github.com/gin-gonic/gin"
)

// asGenericJSON round-trips v through encoding/json so jsonpath.Get can walk
// it as the map[string]interface{}/[]interface{} shape it expects, rather
// than a typed Go struct.
func asGenericJSON(v interface{}) (interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return generic, nil
}

// filterJSONPath applies an optional "?q=" JSONPath query to data, returning
// data unfiltered when q is empty.
func filterJSONPath(data interface{}, q string) (interface{}, error) {
	if q == "" {
		return data, nil
	}
	generic, err := asGenericJSON(data)
	if err != nil {
		return nil, err
	}
	return jsonpath.Get(q, generic)
}

// handleInfo serves GET /cache/info?namespace=...[&q=$.Hits]: the shared
// engine's rolling stats (spec §3's Stats/NamespaceStats), optionally
// narrowed to one field via JSONPath.
func (s *Service) handleInfo(c *gin.Context) {
	namespace := c.Query("namespace")
	eng := s.cfg.Provisioning.EngineForNamespace(defaultNamespace(namespace))
	if eng == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "namespace not found"})
		return
	}

	var data interface{}
	if namespace == "" {
		data = eng.Snapshot()
	} else {
		data = eng.NamespaceStats(namespace)
	}

	result, err := filterJSONPath(data, c.Query("q"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"info": result})
}

// handleConfig serves GET /cache/config[?q=...]: the node's effective
// runtime configuration as seen by callers (no secrets surfaced), optionally
// narrowed to one field via JSONPath.
func (s *Service) handleConfig(c *gin.Context) {
	cfg := gin.H{
		"rate_limit": gin.H{
			"requests_per_second": s.cfg.RateLimit.RequestsPerSecond,
			"burst":               s.cfg.RateLimit.Burst,
		},
		"auth_required": s.cfg.JWTSecret != "",
	}
	result, err := filterJSONPath(cfg, c.Query("q"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"config": result})
}

func defaultNamespace(namespace string) string {
	if namespace == "" {
		return "default"
	}
	return namespace
}
