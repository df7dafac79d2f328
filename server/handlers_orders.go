package server

import (
	"errors"
	"net/http"

	"github.com/example/storefront/pkg/orders"
	"github.com/example/storefront/pkg/repository"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (s *Server) createOrder(c *gin.Context) {
	var req orders.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	result, err := s.orders.Create(c.Request.Context(), c.ClientIP(), &req)
	if err != nil {
		s.orderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) listOrders(c *gin.Context) {
	filter := repository.OrderFilter{
		Email:  c.Query("email"),
		Phone:  c.Query("phone"),
		Status: c.Query("status"),
	}

	list, err := s.orders.List(c.Request.Context(), filter)
	if err != nil {
		s.logger.Error("Failed to list orders", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}
	c.JSON(http.StatusOK, list)
}

// orderStatus serves the checkout-page poller through a short-lived redis
// cache, falling back to the database.
func (s *Server) orderStatus(c *gin.Context) {
	id := c.Param("id")

	if s.cache != nil {
		if cached, err := s.cache.GetOrderCache(c.Request.Context(), id); err == nil {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	order, err := s.store.GetOrder(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		s.logger.Error("Failed to load order", zap.String("order_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
		return
	}

	status := &repository.OrderCache{
		ID:            order.ID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		Fulfilled:     order.Fulfilled,
	}
	if s.cache != nil {
		if err := s.cache.CacheOrder(c.Request.Context(), status); err != nil {
			s.logger.Warn("Failed to cache order status", zap.String("order_id", id), zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, status)
}

func (s *Server) invalidateOrderCache(c *gin.Context, orderID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateOrder(c.Request.Context(), orderID); err != nil {
		s.logger.Warn("Failed to invalidate order cache", zap.String("order_id", orderID), zap.Error(err))
	}
}

func (s *Server) fulfillOrder(c *gin.Context) {
	order, err := s.orders.Fulfill(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		s.logger.Error("Failed to fulfill order", zap.String("order_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order"})
		return
	}
	s.invalidateOrderCache(c, order.ID)
	c.JSON(http.StatusOK, order)
}

func (s *Server) verifyPayment(c *gin.Context) {
	var req orders.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid input"})
		return
	}

	order, err := s.orders.ConfirmPayment(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrInvalidSignature):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid signature"})
		case errors.Is(err, orders.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Order not found"})
		case errors.Is(err, orders.ErrSlotTaken):
			c.JSON(http.StatusConflict, gin.H{"success": false, "error": "Slot no longer available"})
		default:
			s.logger.Error("Payment verification failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Payment verification failed"})
		}
		return
	}

	s.invalidateOrderCache(c, order.ID)
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

func (s *Server) paymentWebhook(c *gin.Context) {
	// The signature is over the raw bytes; the body must not be decoded
	// before verification.
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable body"})
		return
	}
	signature := c.GetHeader("X-Razorpay-Signature")

	if err := s.orders.HandleWebhook(c.Request.Context(), body, signature); err != nil {
		if errors.Is(err, orders.ErrInvalidSignature) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
			return
		}
		s.logger.Error("Webhook processing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Webhook processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (s *Server) orderError(c *gin.Context, err error) {
	var verr *orders.ValidationError
	var gwErr *orders.GatewayError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": verr.Fields})
	case errors.Is(err, orders.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
	case errors.Is(err, orders.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.As(err, &gwErr):
		s.logger.Error("Gateway order creation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
	default:
		s.logger.Error("Order creation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
	}
}
