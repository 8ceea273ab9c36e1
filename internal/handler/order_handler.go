package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wavecart/order-ledger/internal/domain"
	"github.com/wavecart/order-ledger/internal/service"
)

type OrderHandler struct {
	checkout *service.CheckoutService
	status   *service.StatusService
	payments *service.PaymentService
	logger   *zap.Logger
}

func NewOrderHandler(
	checkout *service.CheckoutService,
	status *service.StatusService,
	payments *service.PaymentService,
	logger *zap.Logger,
) *OrderHandler {
	return &OrderHandler{
		checkout: checkout,
		status:   status,
		payments: payments,
		logger:   logger,
	}
}

type transitionRequest struct {
	Target string `json:"target" binding:"required"`
	Note   string `json:"note"`
}

type paymentRequest struct {
	Status        string `json:"status" binding:"required"`
	TransactionID string `json:"transaction_id"`
	Details       string `json:"details"`
}

type cancelRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// actor builds the request principal from the identity headers the gateway
// resolved during authentication.
func actor(c *gin.Context) domain.Actor {
	id := c.GetHeader("X-Actor-ID")
	var roles []domain.Role
	for _, r := range strings.Split(c.GetHeader("X-Actor-Roles"), ",") {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, domain.Role(r))
		}
	}
	return domain.NewActor(id, roles...)
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req domain.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	result, err := h.checkout.CreateOrder(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.status.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) TransitionStatus(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}

	order, err := h.status.Transition(c.Request.Context(), c.Param("id"), domain.OrderStatus(req.Target), actor(c), req.Note)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) ApplyPaymentStatus(c *gin.Context) {
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}

	order, err := h.payments.ApplyPaymentStatus(c.Request.Context(), c.Param("id"),
		domain.PaymentStatus(req.Status), req.TransactionID, req.Details)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) CancelOrder(c *gin.Context) {
	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}

	order, err := h.status.CancelOrder(c.Request.Context(), c.Param("id"), actor(c), req.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) respondError(c *gin.Context, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		h.logger.Error("Request failed",
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	var status int
	switch de.Kind {
	case domain.KindValidation:
		status = http.StatusBadRequest
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindForbidden:
		status = http.StatusForbidden
	case domain.KindConflict:
		status = http.StatusConflict
	case domain.KindBusinessRule:
		status = http.StatusUnprocessableEntity
	case domain.KindExternal:
		status = http.StatusBadGateway
	default:
		status = http.StatusInternalServerError
	}

	c.JSON(status, gin.H{"error": de.Message, "code": de.Code})
}
