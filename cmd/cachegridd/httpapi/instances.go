package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/R3E-Network/cachegrid/infrastructure/errors"
	"github.com/R3E-Network/cachegrid/infrastructure/httputil"
	"github.com/R3E-Network/cachegrid/internal/provisioning"
)

// handlePlans serves GET /plans: the static tiered-plan catalog (spec §4.8).
func (s *Service) handlePlans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"plans": s.cfg.Provisioning.Plans()})
}

type createInstanceBody struct {
	Owner         string `json:"owner"`
	PlanID        string `json:"plan_id"`
	Namespace     string `json:"namespace"`
	DurationHours int    `json:"duration_hours"`
	Attestation   string `json:"attestation,omitempty"` // base64-free opaque passthrough
}

// handleCreateInstance serves POST /instances (spec §4.8's CreateInstance).
func (s *Service) handleCreateInstance(c *gin.Context) {
	var body createInstanceBody
	if !httputil.DecodeJSON(c.Writer, c.Request, &body) {
		return
	}
	owner := callerOwner(c, body.Owner)
	if owner == "" {
		httputil.WriteErrorResponse(c.Writer, c.Request, http.StatusBadRequest, "INVALID_OPERATION", "owner is required", nil)
		return
	}
	inst, err := s.cfg.Provisioning.CreateInstance(provisioning.CreateInstanceRequest{
		Owner:         owner,
		PlanID:        body.PlanID,
		Namespace:     body.Namespace,
		DurationHours: body.DurationHours,
		Attestation:   []byte(body.Attestation),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, inst)
}

// handleDeleteInstance serves DELETE /instances/:id. The caller's owner
// must match the instance's owner (spec §4.8's authorization rule),
// enforced by provisioning.DeleteInstance itself.
func (s *Service) handleDeleteInstance(c *gin.Context) {
	id := c.Param("id")
	owner := callerOwner(c, c.Query("owner"))
	if err := s.cfg.Provisioning.DeleteInstance(id, owner); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Service) handleListInstances(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"instances": s.cfg.Provisioning.Instances()})
}

type registerNodeBody struct {
	NodeID      string            `json:"node_id"`
	Address     string            `json:"address"`
	Endpoint    string            `json:"endpoint"`
	Region      string            `json:"region"`
	Tier        provisioning.Tier `json:"tier"`
	MaxMemoryMB int64             `json:"max_memory_mb"`
	Attestation string            `json:"attestation,omitempty"`
}

// handleRegisterNode serves POST /nodes (spec §4.8's RegisterNode). Nodes
// joining after startup aren't wired into this process's hash ring or
// regional router automatically — that requires a restart or a future
// cluster-membership push, noted as an Open Question in DESIGN.md.
func (s *Service) handleRegisterNode(c *gin.Context) {
	var body registerNodeBody
	if !httputil.DecodeJSON(c.Writer, c.Request, &body) {
		return
	}
	if body.NodeID == "" {
		httputil.WriteErrorResponse(c.Writer, c.Request, http.StatusBadRequest, "INVALID_OPERATION", "node_id is required", nil)
		return
	}
	node := s.cfg.Provisioning.RegisterNode(provisioning.RegisterNodeRequest{
		NodeID:      body.NodeID,
		Address:     body.Address,
		Endpoint:    body.Endpoint,
		Region:      body.Region,
		Tier:        body.Tier,
		MaxMemoryMB: body.MaxMemoryMB,
		Attestation: []byte(body.Attestation),
	})
	c.JSON(http.StatusCreated, node)
}

func (s *Service) handleListNodes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"nodes": s.cfg.Provisioning.Nodes()})
}

func writeServiceError(c *gin.Context, err error) {
	se := errors.GetServiceError(err)
	if se == nil {
		httputil.WriteErrorResponse(c.Writer, c.Request, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
		return
	}
	httputil.WriteErrorResponse(c.Writer, c.Request, se.HTTPStatus, string(se.Code), se.Message, se.Details)
}
