package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/messismo/bar/internal/audit/domain"
	"github.com/shopspring/decimal"
)

type updateRoleRequest struct {
	Role string `json:"role"`
}

type migratePointsRequest struct {
	ClientID    string          `json:"client_id"`
	TotalPoints decimal.Decimal `json:"total_points"`
}

type migratePointsResponse struct {
	ClientID string `json:"client_id"`
	Applied  bool   `json:"applied"`
}

func (s *Server) ListClients(c *gin.Context) {
	resp, err := s.userSvc.ListClients(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateUserRole(c *gin.Context) {
	var req updateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.userSvc.UpdateRole(c.Request.Context(), strings.TrimSpace(c.Param("id")), strings.TrimSpace(req.Role))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// MigratePoints seeds historical points once per client. Repeated calls
// succeed with applied=false.
func (s *Server) MigratePoints(c *gin.Context) {
	var req migratePointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	clientID := strings.TrimSpace(req.ClientID)
	ctx := c.Request.Context()
	if _, err := s.userSvc.GetByClientID(ctx, clientID); err != nil {
		AbortWithError(c, err)
		return
	}

	applied, err := s.pointsSvc.Migrate(ctx, clientID, req.TotalPoints)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if applied && s.auditSvc != nil {
		_ = s.auditSvc.AuditLog(ctx, auditdomain.ActionPointsMigrate, "points_account", clientID, map[string]any{
			"total_points": req.TotalPoints.String(),
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": migratePointsResponse{ClientID: clientID, Applied: applied}})
}
