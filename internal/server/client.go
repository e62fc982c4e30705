package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/messismo/bar/internal/actorctx"
	pointsdomain "github.com/messismo/bar/internal/points/domain"
	"github.com/messismo/bar/internal/points/live"
	userdomain "github.com/messismo/bar/internal/user/domain"
)

// currentClientID resolves the client id of the authenticated user.
func (s *Server) currentClientID(c *gin.Context) (string, bool) {
	actor, ok := actorctx.ActorFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return "", false
	}

	user, err := s.userSvc.GetByEmail(c.Request.Context(), actor.Email)
	if err != nil {
		AbortWithError(c, err)
		return "", false
	}
	if user == nil || user.ClientID == nil {
		AbortWithError(c, userdomain.ErrClientNotFound)
		return "", false
	}
	return *user.ClientID, true
}

func (s *Server) GetClientPoints(c *gin.Context) {
	clientID, ok := s.currentClientID(c)
	if !ok {
		return
	}

	balance, err := s.pointsSvc.GetBalance(c.Request.Context(), clientID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": pointsdomain.BalanceResponse{CurrentBalance: balance.InexactFloat64()}})
}

func (s *Server) GetClientPointsHistory(c *gin.Context) {
	clientID, ok := s.currentClientID(c)
	if !ok {
		return
	}

	history, err := s.pointsSvc.GetHistory(c.Request.Context(), clientID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": history})
}

// StreamClientPoints pushes balance changes as server-sent events.
func (s *Server) StreamClientPoints(c *gin.Context) {
	clientID, ok := s.currentClientID(c)
	if !ok {
		return
	}

	subscription, backlog, err := s.pointsSvc.Subscribe(clientID)
	if err != nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	defer subscription.Close()

	writer := c.Writer
	headers := writer.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")
	headers.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	flusher, ok := writer.(http.Flusher)
	if !ok {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	if _, err := io.WriteString(writer, "retry: 2000\n\n"); err != nil {
		return
	}
	for _, event := range backlog {
		if err := writePointsEvent(writer, event); err != nil {
			return
		}
	}
	flusher.Flush()

	ctx := c.Request.Context()
	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, open := <-subscription.Events():
			if !open {
				return
			}
			if err := writePointsEvent(writer, event); err != nil {
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := io.WriteString(writer, ": heartbeat\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writePointsEvent(w io.Writer, event live.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}

func (s *Server) GetClientProfile(c *gin.Context) {
	actor, ok := actorctx.ActorFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	profile, err := s.userSvc.ClientProfile(c.Request.Context(), actor.Email)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": profile})
}

func (s *Server) ListClientOrders(c *gin.Context) {
	actor, ok := actorctx.ActorFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	orders, err := s.orderSvc.ListByClientEmail(c.Request.Context(), actor.Email)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": orders})
}

func (s *Server) ListClientProducts(c *gin.Context) {
	products, err := s.productSvc.ListForClients(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": products})
}

func isPointsValidationError(err error) bool {
	switch err {
	case pointsdomain.ErrInvalidClientID,
		pointsdomain.ErrInvalidAmount:
		return true
	default:
		return false
	}
}
