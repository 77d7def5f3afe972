package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/R3E-Network/cachegrid/infrastructure/httputil"
	"github.com/R3E-Network/cachegrid/internal/resp"
)

// commandRequest is one RESP-style command shaped for JSON transport: the
// command name as argv[0], its arguments following (spec §6's "callable
// with (engine, namespace, command, args)").
type commandRequest struct {
	Namespace string   `json:"namespace"`
	Argv      []string `json:"argv"`
}

func (s *Service) dispatch(req commandRequest) (interface{}, error) {
	namespace := req.Namespace
	if namespace == "" {
		namespace = "default"
	}
	eng := s.cfg.Provisioning.EngineForNamespace(namespace)
	if eng == nil {
		return nil, errNamespaceNotFound(namespace)
	}
	argv := make([][]byte, len(req.Argv))
	for i, a := range req.Argv {
		argv[i] = []byte(a)
	}
	ctx := &resp.Context{Engine: eng, Namespace: namespace, Argv: argv}
	reply := resp.Execute(ctx)

	if reply.Kind != resp.KindError && len(argv) > 0 && resp.IsMutatingCommand(string(argv[0])) && s.cfg.MutationHook != nil {
		s.cfg.MutationHook(namespace, argv)
	}
	return valueToJSON(reply)
}

// idempotencyKeyHeader is an optional caller-supplied header naming a
// mutating request so a retried POST (client timeout, proxy retry) isn't
// re-applied twice. Checking it is opt-in: a request with no header is
// never treated as a replay.
const idempotencyKeyHeader = "Idempotency-Key"

// checkIdempotency rejects a mutating request that reuses an
// Idempotency-Key already seen within the window, writing the 409 response
// itself. It returns true when the caller should proceed.
func (s *Service) checkIdempotency(c *gin.Context) bool {
	key := c.GetHeader(idempotencyKeyHeader)
	if key == "" {
		return true
	}
	if !s.replay.ValidateAndMark(key) {
		httputil.WriteErrorResponse(c.Writer, c.Request, http.StatusConflict, "DUPLICATE_REQUEST",
			"Idempotency-Key already seen", nil)
		return false
	}
	return true
}

// handleCommand serves POST /cache/command: one JSON-shaped command,
// dispatched through the same Execute path the RESP listener uses.
func (s *Service) handleCommand(c *gin.Context) {
	var req commandRequest
	if !httputil.DecodeJSON(c.Writer, c.Request, &req) {
		return
	}
	if len(req.Argv) == 0 {
		httputil.WriteErrorResponse(c.Writer, c.Request, http.StatusBadRequest, "INVALID_OPERATION", "argv must not be empty", nil)
		return
	}
	if len(req.Argv) > 0 && resp.IsMutatingCommand(req.Argv[0]) && !s.checkIdempotency(c) {
		return
	}
	result, err := s.dispatch(req)
	if err != nil {
		writeDispatchError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

// pipelineRequest batches several commands against the same namespace,
// executed in order, so a caller doesn't pay one HTTP round trip per
// command (spec §6's pipeline surface).
type pipelineRequest struct {
	Namespace string     `json:"namespace"`
	Commands  [][]string `json:"commands"`
}

func (s *Service) handlePipeline(c *gin.Context) {
	var req pipelineRequest
	if !httputil.DecodeJSON(c.Writer, c.Request, &req) {
		return
	}
	if pipelineHasMutation(req.Commands) && !s.checkIdempotency(c) {
		return
	}
	results := make([]gin.H, 0, len(req.Commands))
	for _, argv := range req.Commands {
		if len(argv) == 0 {
			results = append(results, gin.H{"error": "argv must not be empty"})
			continue
		}
		result, err := s.dispatch(commandRequest{Namespace: req.Namespace, Argv: argv})
		if err != nil {
			results = append(results, gin.H{"error": err.Error()})
			continue
		}
		results = append(results, gin.H{"result": result})
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// pipelineHasMutation reports whether any command in a batch would mutate
// the engine, so the whole pipeline shares one idempotency check rather
// than one per command.
func pipelineHasMutation(commands [][]string) bool {
	for _, argv := range commands {
		if len(argv) > 0 && resp.IsMutatingCommand(argv[0]) {
			return true
		}
	}
	return false
}

func writeDispatchError(c *gin.Context, err error) {
	switch err.(type) {
	case commandError:
		httputil.WriteErrorResponse(c.Writer, c.Request, http.StatusBadRequest, "INVALID_OPERATION", err.Error(), nil)
	case namespaceNotFoundError:
		httputil.WriteErrorResponse(c.Writer, c.Request, http.StatusNotFound, "NAMESPACE_NOT_FOUND", err.Error(), nil)
	default:
		httputil.WriteErrorResponse(c.Writer, c.Request, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
	}
}

type namespaceNotFoundError string

func (e namespaceNotFoundError) Error() string { return "namespace not found: " + string(e) }

func errNamespaceNotFound(namespace string) error { return namespaceNotFoundError(namespace) }
