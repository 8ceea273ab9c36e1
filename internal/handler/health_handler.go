package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler probes the event broker and the backing store so load
// balancers stop routing to an instance that lost a dependency.
type HealthHandler struct {
	service string
	kafka   Pinger
	store   Pinger
}

func NewHealthHandler(service string, kafka, store Pinger) *HealthHandler {
	return &HealthHandler{
		service: service,
		kafka:   kafka,
		store:   store,
	}
}

func (h *HealthHandler) Check(c *gin.Context) {
	status := gin.H{
		"status":  "healthy",
		"service": h.service,
	}

	healthy := true
	if err := h.kafka.Ping(c.Request.Context()); err != nil {
		status["kafka"] = "unhealthy"
		healthy = false
	} else {
		status["kafka"] = "healthy"
	}
	if err := h.store.Ping(c.Request.Context()); err != nil {
		status["store"] = "unhealthy"
		healthy = false
	} else {
		status["store"] = "healthy"
	}

	if !healthy {
		status["status"] = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}
	c.JSON(http.StatusOK, status)
}
