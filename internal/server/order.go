package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	orderdomain "github.com/messismo/bar/internal/order/domain"
)

func (s *Server) ListOrders(c *gin.Context) {
	from, err := parseOptionalTime(c.Query("from"), false)
	if err != nil {
		AbortWithError(c, newValidationError("from", "invalid_from", "invalid from"))
		return
	}
	to, err := parseOptionalTime(c.Query("to"), true)
	if err != nil {
		AbortWithError(c, newValidationError("to", "invalid_to", "invalid to"))
		return
	}

	var resp []orderdomain.OrderResponse
	switch {
	case from == nil && to == nil:
		resp, err = s.orderSvc.List(c.Request.Context())
	case from != nil && to != nil:
		resp, err = s.orderSvc.ListBetween(c.Request.Context(), *from, *to)
	default:
		AbortWithError(c, orderdomain.ErrInvalidDateRange)
		return
	}
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetOrderByID(c *gin.Context) {
	resp, err := s.orderSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetOrderReceipt(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	doc, err := s.orderSvc.Receipt(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", "inline; filename=\"order-"+id+".pdf\"")
	c.Data(http.StatusOK, "application/pdf", doc)
}

func (s *Server) CreateOrder(c *gin.Context) {
	var req orderdomain.AddOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.orderSvc.AddNewOrder(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ModifyOrder(c *gin.Context) {
	var req orderdomain.ModifyOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.orderSvc.ModifyOrder(c.Request.Context(), strings.TrimSpace(c.Param("id")), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// CloseOrder accepts an empty body; client and benefit are both optional.
func (s *Server) CloseOrder(c *gin.Context) {
	var req orderdomain.CloseRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.orderSvc.CloseWithClient(c.Request.Context(), strings.TrimSpace(c.Param("id")), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isOrderValidationError(err error) bool {
	switch err {
	case orderdomain.ErrOrderClosed,
		orderdomain.ErrInvalidID,
		orderdomain.ErrInvalidItems,
		orderdomain.ErrInvalidQuantity,
		orderdomain.ErrInvalidDateRange:
		return true
	default:
		return false
	}
}
