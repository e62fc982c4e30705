package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	benefitdomain "github.com/messismo/bar/internal/benefit/domain"
)

func (s *Server) ListBenefits(c *gin.Context) {
	benefits, err := s.benefitSvc.ListActive(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": benefitResponses(benefits)})
}

func (s *Server) GetBenefitByID(c *gin.Context) {
	benefit, err := s.benefitSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": benefit.Response()})
}

func (s *Server) CreateBenefit(c *gin.Context) {
	var req benefitdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	benefit, err := s.benefitSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": benefit.Response()})
}

func (s *Server) DeleteBenefit(c *gin.Context) {
	deleted, err := s.benefitSvc.SoftDelete(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !deleted {
		AbortWithError(c, benefitdomain.ErrBenefitNotFound)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) ListBenefitsByType(c *gin.Context) {
	benefits, err := s.benefitSvc.ListByKind(c.Request.Context(), c.Param("type"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": benefitResponses(benefits)})
}

// ListAvailableBenefits returns what the given points can buy today.
func (s *Server) ListAvailableBenefits(c *gin.Context) {
	points, err := strconv.ParseInt(strings.TrimSpace(c.Param("points")), 10, 64)
	if err != nil {
		AbortWithError(c, newValidationError("points", "invalid_points", "invalid points"))
		return
	}

	benefits, err := s.benefitSvc.ListAvailableNow(c.Request.Context(), points)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": benefitResponses(benefits)})
}

func (s *Server) CheckDuplicateBenefit(c *gin.Context) {
	var req benefitdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	duplicate, err := s.benefitSvc.CheckDuplicate(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": benefitdomain.DuplicateCheckResponse{Duplicate: duplicate}})
}

func benefitResponses(benefits []benefitdomain.Benefit) []benefitdomain.BenefitResponse {
	resp := make([]benefitdomain.BenefitResponse, 0, len(benefits))
	for _, b := range benefits {
		resp = append(resp, b.Response())
	}
	return resp
}

func isBenefitValidationError(err error) bool {
	switch err {
	case benefitdomain.ErrInvalidKind,
		benefitdomain.ErrInvalidPointsRequired,
		benefitdomain.ErrInvalidDiscountKind,
		benefitdomain.ErrInvalidDiscountValue,
		benefitdomain.ErrInvalidApplicableDays,
		benefitdomain.ErrInvalidProductIDs,
		benefitdomain.ErrInvalidPoints:
		return true
	default:
		return false
	}
}
