package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	settingsdomain "github.com/messismo/bar/internal/settings/domain"
	"github.com/shopspring/decimal"
)

type pointsConversionResponse struct {
	ConversionRate float64 `json:"conversionRate"`
	Description    string  `json:"description"`
}

type updatePointsConversionRequest struct {
	ConversionRate decimal.Decimal `json:"conversionRate"`
}

func (s *Server) ListSettings(c *gin.Context) {
	resp, err := s.settingsSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetSetting(c *gin.Context) {
	resp, err := s.settingsSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("key")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetSettingHistory(c *gin.Context) {
	resp, err := s.settingsSvc.GetHistory(c.Request.Context(), strings.TrimSpace(c.Param("key")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SetSetting(c *gin.Context) {
	var req settingsdomain.SetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.Key = strings.TrimSpace(c.Param("key"))

	resp, err := s.settingsSvc.Set(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPointsConversion(c *gin.Context) {
	rate := s.settingsSvc.GetPointsConversionRate(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{"data": pointsConversionResponse{
		ConversionRate: rate.InexactFloat64(),
		Description:    settingsdomain.PointsConversionRateDescription,
	}})
}

func (s *Server) UpdatePointsConversion(c *gin.Context) {
	var req updatePointsConversionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.settingsSvc.UpdatePointsConversionRate(c.Request.Context(), req.ConversionRate)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isSettingsValidationError(err error) bool {
	switch err {
	case settingsdomain.ErrInvalidKey,
		settingsdomain.ErrInvalidValue,
		settingsdomain.ErrInvalidConversionRate:
		return true
	default:
		return false
	}
}
