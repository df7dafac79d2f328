package orders

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/ratelimit"
	"github.com/example/storefront/pkg/razorpay"
	"github.com/example/storefront/pkg/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Store is the persistence surface the order lifecycle needs. The gorm
// repository satisfies it; tests use in-memory fakes.
type Store interface {
	UpsertUserByContact(ctx context.Context, name, email, phone string) (*models.User, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	SetGatewayOrderID(ctx context.Context, orderID, gatewayOrderID string) error
	ConfirmOrderPaid(ctx context.Context, orderID, gatewayOrderID, paymentID string) (*repository.ConfirmResult, error)
	ConfirmOrderPaidByGatewayID(ctx context.Context, gatewayOrderID, paymentID string) (*repository.ConfirmResult, error)
	MarkFulfilled(ctx context.Context, orderID string) (*models.Order, error)
	ListOrders(ctx context.Context, filter repository.OrderFilter) ([]models.Order, error)
}

// Gateway reserves an amount with the payment processor.
type Gateway interface {
	CreateOrder(ctx context.Context, amountPaise int64, receipt string, notes map[string]string) (*razorpay.GatewayOrder, error)
}

// Notifier dispatches the confirmation email. Best effort; the service
// never waits on it and never fails because of it.
type Notifier interface {
	OrderConfirmed(order *models.Order)
}

// Auditor records lifecycle events. Optional.
type Auditor interface {
	CreateAuditLog(ctx context.Context, log *repository.AuditLog) error
}

// Service owns the order lifecycle: creation, the idempotent paid
// transition fed by both confirmation paths, and fulfillment.
type Service struct {
	store       Store
	gateway     Gateway
	limiter     ratelimit.Limiter
	notifier    Notifier
	audit       Auditor
	logger      *zap.Logger
	secret      string
	createLimit int
}

func NewService(store Store, gateway Gateway, limiter ratelimit.Limiter, notifier Notifier, audit Auditor, logger *zap.Logger, secret string, createLimit int) *Service {
	return &Service{
		store:       store,
		gateway:     gateway,
		limiter:     limiter,
		notifier:    notifier,
		audit:       audit,
		logger:      logger,
		secret:      secret,
		createLimit: createLimit,
	}
}

// CreateResult is what the checkout UI needs to open the gateway widget.
type CreateResult struct {
	OrderID        string  `json:"orderId"`
	GatewayOrderID string  `json:"gatewayOrderId"`
	Amount         float64 `json:"amount"`
}

// Create runs the first half of the lifecycle: rate limit, validate, upsert
// the user, persist the pending order, reserve with the gateway and record
// the gateway order id. A gateway failure leaves the order pending with no
// gateway id; such orphans are harmless and never confirmable.
func (s *Service) Create(ctx context.Context, clientIP string, req *CreateRequest) (*CreateResult, error) {
	ok, err := s.limiter.Allow(ctx, "create:"+clientIP, s.createLimit)
	if err != nil {
		// A broken limiter backend should not take checkout down.
		s.logger.Warn("rate limiter unavailable", zap.Error(err))
	} else if !ok {
		return nil, ErrRateLimited
	}

	if verr := req.Validate(); verr != nil {
		return nil, verr
	}

	orderType := models.OrderType(req.Type)
	serviceRef, productRef := resolveRefs(orderType, req.ServiceID, req.ProductID, req.EntityID)

	user, err := s.store.UpsertUserByContact(ctx, req.CustomerName, req.CustomerEmail, req.CustomerPhone)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:             uuid.NewString(),
		UserID:         &user.ID,
		Type:           orderType,
		ServiceID:      serviceRef,
		ProductID:      productRef,
		Amount:         req.Amount,
		CustomerName:   req.CustomerName,
		CustomerEmail:  req.CustomerEmail,
		CustomerPhone:  req.CustomerPhone,
		AdditionalInfo: req.AdditionalInfo,
		PaymentStatus:  models.PaymentStatusPending,
		Status:         models.OrderStatusPending,
		Fulfilled:      false,
	}
	if req.SlotDateTime != nil && *req.SlotDateTime != "" {
		slotTime, _ := time.Parse(time.RFC3339, *req.SlotDateTime)
		slotTime = models.NormalizeSlotTime(slotTime)
		order.SlotDateTime = &slotTime
	}

	if err := s.store.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	s.auditLog(order.ID, repository.AuditOrderCreated, map[string]interface{}{
		"type":   string(order.Type),
		"amount": order.Amount,
	})

	gw, err := s.gateway.CreateOrder(ctx, razorpay.ToSmallestUnit(req.Amount), "order_"+order.ID, map[string]string{
		"orderId":       order.ID,
		"type":          string(order.Type),
		"customerName":  req.CustomerName,
		"customerEmail": req.CustomerEmail,
		"customerPhone": req.CustomerPhone,
	})
	if err != nil {
		s.logger.Error("gateway reservation failed",
			zap.String("order_id", order.ID),
			zap.Error(err))
		return nil, &GatewayError{Err: err}
	}

	if err := s.store.SetGatewayOrderID(ctx, order.ID, gw.ID); err != nil {
		return nil, err
	}

	return &CreateResult{
		OrderID:        order.ID,
		GatewayOrderID: gw.ID,
		Amount:         float64(gw.Amount) / 100,
	}, nil
}

// VerifyRequest is the client-callback confirmation.
type VerifyRequest struct {
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	GatewaySignature string `json:"gateway_signature"`
	OrderID          string `json:"orderId"`
}

// ConfirmPayment handles the synchronous checkout callback: signature check
// first, then the shared idempotent paid transition, then a best-effort
// confirmation email.
func (s *Service) ConfirmPayment(ctx context.Context, req *VerifyRequest) (*models.Order, error) {
	if !razorpay.VerifyPaymentSignature(s.secret, req.GatewayOrderID, req.GatewayPaymentID, req.GatewaySignature) {
		return nil, ErrInvalidSignature
	}

	res, err := s.store.ConfirmOrderPaid(ctx, req.OrderID, req.GatewayOrderID, req.GatewayPaymentID)
	if err != nil {
		return nil, s.mapConfirmErr(err)
	}

	if res.Applied {
		s.auditLog(res.Order.ID, repository.AuditPaymentConfirmed, map[string]interface{}{
			"gateway_payment_id": req.GatewayPaymentID,
			"path":               "callback",
		})
		s.notifyConfirmed(res.Order)
	}

	return res.Order, nil
}

// webhookEvent mirrors the slice of the gateway payload the handler needs.
type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// HandleWebhook handles the asynchronous gateway delivery. The signature is
// computed over the raw body bytes exactly as received. Everything past a
// valid signature is acknowledged: unknown orders, repeated deliveries and
// even a lost slot must not make the gateway retry forever.
func (s *Service) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if !razorpay.VerifyWebhookSignature(s.secret, body, signature) {
		return ErrInvalidSignature
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.logger.Warn("unparseable webhook body", zap.Error(err))
		return nil
	}

	if event.Event != "payment.captured" {
		return nil
	}

	gatewayOrderID := event.Payload.Payment.Entity.OrderID
	paymentID := event.Payload.Payment.Entity.ID

	res, err := s.store.ConfirmOrderPaidByGatewayID(ctx, gatewayOrderID, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// No matching order; acknowledge without guessing.
			s.logger.Warn("webhook for unknown gateway order",
				zap.String("gateway_order_id", gatewayOrderID))
			return nil
		}
		if errors.Is(err, repository.ErrSlotUnavailable) {
			s.logger.Error("webhook confirmation rejected, slot taken",
				zap.String("gateway_order_id", gatewayOrderID))
			return nil
		}
		return err
	}

	if res.Applied {
		s.auditLog(res.Order.ID, repository.AuditWebhookReceived, map[string]interface{}{
			"gateway_payment_id": paymentID,
			"path":               "webhook",
		})
		s.notifyConfirmed(res.Order)
	}

	return nil
}

// Fulfill marks the deliverable handed over. No paid-status guard: the
// admin uses this as a manual escape hatch.
func (s *Service) Fulfill(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.store.MarkFulfilled(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.auditLog(order.ID, repository.AuditOrderFulfilled, nil)
	return order, nil
}

func (s *Service) List(ctx context.Context, filter repository.OrderFilter) ([]models.Order, error) {
	return s.store.ListOrders(ctx, filter)
}

func (s *Service) mapConfirmErr(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrSlotUnavailable):
		return ErrSlotTaken
	case errors.Is(err, repository.ErrGatewayOrderMismatch):
		// The signature was valid for some order, just not this one.
		return ErrInvalidSignature
	default:
		return err
	}
}

func (s *Service) notifyConfirmed(order *models.Order) {
	if s.notifier == nil {
		return
	}
	// Fire and forget; a failed email is logged by the notifier and never
	// fails the confirmation, the money has already moved.
	s.notifier.OrderConfirmed(order)
}

func (s *Service) auditLog(orderID, action string, data map[string]interface{}) {
	if s.audit == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := s.audit.CreateAuditLog(ctx, &repository.AuditLog{
			Action:  action,
			OrderID: orderID,
			Data:    data,
		})
		if err != nil {
			s.logger.Warn("audit log write failed",
				zap.String("order_id", orderID),
				zap.String("action", action),
				zap.Error(err))
		}
	}()
}
