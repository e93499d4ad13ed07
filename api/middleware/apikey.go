package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ExoPexodus/crimson-cloud-command/internal/registry"
)

const (
	APIKeyHeader = "X-API-Key"
	NodeKey      = "node"
)

// APIKeyAuth guards node-facing endpoints. The key must resolve to the
// node named in the :id path parameter; a valid key presented for a
// different node is rejected with 403.
func APIKeyAuth(reg *registry.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader(APIKeyHeader)
		if apiKey == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing API key",
			})
			return
		}

		nodeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "invalid node id",
			})
			return
		}

		node, err := reg.Authenticate(c.Request.Context(), nodeID, apiKey)
		if err != nil {
			switch {
			case errors.Is(err, registry.ErrWrongNode):
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error": "API key does not belong to this node",
				})
			case errors.Is(err, registry.ErrInvalidAPIKey):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "invalid API key",
				})
			default:
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "authentication failed",
				})
			}
			return
		}

		c.Set(NodeKey, node)
		c.Next()
	}
}
