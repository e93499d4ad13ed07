package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ExoPexodus/crimson-cloud-command/api/middleware"
	"github.com/ExoPexodus/crimson-cloud-command/internal/metrics"
	"github.com/ExoPexodus/crimson-cloud-command/internal/registry"
	"github.com/ExoPexodus/crimson-cloud-command/pkg/database/queries"
	"github.com/ExoPexodus/crimson-cloud-command/pkg/models"
)

// NodeHandler serves both surfaces of the node API: the agent-facing
// endpoints (register, heartbeat, config pull) and the dashboard-facing
// ones (list, inspect, config push).
type NodeHandler struct {
	registry      *registry.Service
	nodeRepo      *queries.NodeRepository
	poolRepo      *queries.PoolRepository
	analyticsRepo *queries.AnalyticsRepository
	lifecycleRepo *queries.LifecycleLogRepository
}

func NewNodeHandler(
	reg *registry.Service,
	nodeRepo *queries.NodeRepository,
	poolRepo *queries.PoolRepository,
	analyticsRepo *queries.AnalyticsRepository,
	lifecycleRepo *queries.LifecycleLogRepository,
) *NodeHandler {
	return &NodeHandler{
		registry:      reg,
		nodeRepo:      nodeRepo,
		poolRepo:      poolRepo,
		analyticsRepo: analyticsRepo,
		lifecycleRepo: lifecycleRepo,
	}
}

// Register handles the one-time node enrollment. The response is the
// only place the plaintext API key ever appears.
func (h *NodeHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if req.IPAddress == "" {
		req.IPAddress = c.ClientIP()
	}

	resp, err := h.registry.Register(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Heartbeat ingests one status report from an authenticated node.
func (h *NodeHandler) Heartbeat(c *gin.Context) {
	node := authenticatedNode(c)
	if node == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "node not authenticated"})
		return
	}

	var hb models.Heartbeat
	if err := c.ShouldBindJSON(&hb); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid heartbeat payload"})
		return
	}

	ack, err := h.registry.ProcessHeartbeat(c.Request.Context(), node, hb)
	if err != nil {
		metrics.HeartbeatsTotal.WithLabelValues("error").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process heartbeat"})
		return
	}

	metrics.HeartbeatsTotal.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, ack)
}

// GetConfig serves the authoritative pool configuration to an
// authenticated node. A node that has never been configured gets the
// sentinel document, not an error.
func (h *NodeHandler) GetConfig(c *gin.Context) {
	node := authenticatedNode(c)
	if node == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "node not authenticated"})
		return
	}

	resp, err := h.registry.GetConfig(c.Request.Context(), node.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load configuration"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

type UpdateConfigRequest struct {
	YAMLConfig string `json:"yaml_config" binding:"required"`
}

// UpdateConfig stores a new pool configuration for a node. The YAML is
// validated in full before anything is written; nodes pick up the new
// hash on their next heartbeat.
func (h *NodeHandler) UpdateConfig(c *gin.Context) {
	nodeID, ok := pathNodeID(c)
	if !ok {
		return
	}

	var req UpdateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if _, err := h.nodeRepo.GetByID(c.Request.Context(), nodeID); err != nil {
		if err == queries.ErrNodeNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "node not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	hash, err := h.registry.StoreConfig(c.Request.Context(), nodeID, req.YAMLConfig)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"config_hash": hash})
}

func (h *NodeHandler) List(c *gin.Context) {
	nodes, err := h.nodeRepo.GetAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list nodes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"nodes": nodes, "count": len(nodes)})
}

func (h *NodeHandler) Get(c *gin.Context) {
	nodeID, ok := pathNodeID(c)
	if !ok {
		return
	}

	node, err := h.nodeRepo.GetByID(c.Request.Context(), nodeID)
	if err != nil {
		if err == queries.ErrNodeNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "node not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	pools, err := h.poolRepo.GetByNode(c.Request.Context(), nodeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"node": node, "pools": pools})
}

func (h *NodeHandler) Delete(c *gin.Context) {
	nodeID, ok := pathNodeID(c)
	if !ok {
		return
	}

	if err := h.nodeRepo.Delete(c.Request.Context(), nodeID); err != nil {
		if err == queries.ErrNodeNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "node not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete node"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *NodeHandler) Analytics(c *gin.Context) {
	nodeID, ok := pathNodeID(c)
	if !ok {
		return
	}

	limit := queryLimit(c, 100)
	records, err := h.analyticsRepo.GetByNode(c.Request.Context(), nodeID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load analytics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"analytics": records, "count": len(records)})
}

func (h *NodeHandler) LifecycleLogs(c *gin.Context) {
	nodeID, ok := pathNodeID(c)
	if !ok {
		return
	}

	limit := queryLimit(c, 50)
	logs, err := h.lifecycleRepo.GetByNode(c.Request.Context(), nodeID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load lifecycle logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs, "count": len(logs)})
}

func authenticatedNode(c *gin.Context) *models.Node {
	v, exists := c.Get(middleware.NodeKey)
	if !exists {
		return nil
	}
	node, _ := v.(*models.Node)
	return node
}

func pathNodeID(c *gin.Context) (int64, bool) {
	nodeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid node id"})
		return 0, false
	}
	return nodeID, true
}

func queryLimit(c *gin.Context, fallback int) int {
	raw := c.Query("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}
