package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopalloy/ratewise/pkg/rating"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error string `json:"error"`
}

type quoteResponse struct {
	Packages []*rating.Package `json:"packages"`
}

// handleQuote prices a cart snapshot and returns its packages.
func (s *Server) handleQuote(c *gin.Context) {
	start := time.Now()

	var cart rating.Cart
	if err := c.ShouldBindJSON(&cart); err != nil {
		s.metrics.RecordQuote("quote", "bad_request", time.Since(start).Seconds())
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid cart: " + err.Error()})
		return
	}
	if len(cart.Items) == 0 {
		s.metrics.RecordQuote("quote", "bad_request", time.Since(start).Seconds())
		c.JSON(http.StatusBadRequest, errorResponse{Error: "cart has no items"})
		return
	}

	packages, err := s.engine.Quote(c.Request.Context(), cart)
	if err != nil {
		s.logger.Error("quote failed", zap.Error(err))
		status := http.StatusInternalServerError
		if rating.IsCheckoutBlocking(err) {
			status = http.StatusServiceUnavailable
		}
		s.metrics.RecordQuote("quote", "error", time.Since(start).Seconds())
		c.JSON(status, errorResponse{Error: err.Error()})
		return
	}

	s.metrics.RecordQuote("quote", "ok", time.Since(start).Seconds())
	c.JSON(http.StatusOK, quoteResponse{Packages: packages})
}

// handleRoutingOptions returns the ship-together vs split decision for
// mixed-location carts, or 204 when the cart offers no choice.
func (s *Server) handleRoutingOptions(c *gin.Context) {
	start := time.Now()

	var cart rating.Cart
	if err := c.ShouldBindJSON(&cart); err != nil {
		s.metrics.RecordQuote("routing", "bad_request", time.Since(start).Seconds())
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid cart: " + err.Error()})
		return
	}

	decision, err := s.engine.RoutingOptions(c.Request.Context(), cart)
	if err != nil {
		s.logger.Error("routing options failed", zap.Error(err))
		status := http.StatusInternalServerError
		if rating.IsCheckoutBlocking(err) {
			status = http.StatusServiceUnavailable
		}
		s.metrics.RecordQuote("routing", "error", time.Since(start).Seconds())
		c.JSON(status, errorResponse{Error: err.Error()})
		return
	}
	if decision == nil {
		s.metrics.RecordQuote("routing", "ok", time.Since(start).Seconds())
		c.Status(http.StatusNoContent)
		return
	}

	s.metrics.RecordQuote("routing", "ok", time.Since(start).Seconds())
	c.JSON(http.StatusOK, decision)
}

// Admin-time validation endpoints: reject invalid records loudly before the
// host persists them.

func (s *Server) handleValidateLocation(c *gin.Context) {
	var loc rating.Location
	if err := c.ShouldBindJSON(&loc); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	respondValidation(c, rating.ValidateLocation(loc))
}

func (s *Server) handleValidateProfile(c *gin.Context) {
	var profile rating.ShippingProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	respondValidation(c, rating.ValidateProfile(profile))
}

func (s *Server) handleValidateBox(c *gin.Context) {
	var box rating.Box
	if err := c.ShouldBindJSON(&box); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	respondValidation(c, rating.ValidateBox(box))
}

func (s *Server) handleValidateRule(c *gin.Context) {
	var rule rating.Rule
	if err := c.ShouldBindJSON(&rule); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	respondValidation(c, rating.ValidateRule(rule))
}

func respondValidation(c *gin.Context, err error) {
	if err != nil {
		if errors.Is(err, rating.ErrInvalidRecord) {
			c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}
