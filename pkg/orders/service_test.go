package orders

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/ratelimit"
	"github.com/example/storefront/pkg/razorpay"
	"github.com/example/storefront/pkg/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Mock store mirroring the repository's conditional-update semantics,
// including slot booking inside the confirmation.
type mockStore struct {
	mu         sync.Mutex
	usersByKey map[string]*models.User
	orders     map[string]*models.Order
	soldCounts map[string]int
	slots      map[string]*mockSlot
}

type mockSlot struct {
	booked bool
}

func newMockStore() *mockStore {
	return &mockStore{
		usersByKey: make(map[string]*models.User),
		orders:     make(map[string]*models.Order),
		soldCounts: make(map[string]int),
		slots:      make(map[string]*mockSlot),
	}
}

func slotKey(serviceID string, start time.Time) string {
	return serviceID + "|" + models.NormalizeSlotTime(start).Format(time.RFC3339)
}

func (m *mockStore) addSlot(serviceID string, start time.Time, booked bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[slotKey(serviceID, start)] = &mockSlot{booked: booked}
}

func (m *mockStore) slotBooked(serviceID string, start time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	slot, ok := m.slots[slotKey(serviceID, start)]
	return ok && slot.booked
}

func (m *mockStore) UpsertUserByContact(_ context.Context, name, email, phone string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := email
	if key == "" {
		key = phone
	}
	if u, ok := m.usersByKey[key]; ok {
		u.Name = name
		return u, nil
	}
	u := &models.User{ID: fmt.Sprintf("user-%d", len(m.usersByKey)+1), Name: name}
	if email != "" {
		u.Email = &email
	}
	if phone != "" {
		u.Phone = &phone
	}
	m.usersByKey[key] = u
	return u, nil
}

func (m *mockStore) CreateOrder(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *order
	m.orders[order.ID] = &cp
	return nil
}

func (m *mockStore) SetGatewayOrderID(_ context.Context, orderID, gatewayOrderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[orderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	order.GatewayOrderID = &gatewayOrderID
	return nil
}

func (m *mockStore) ConfirmOrderPaid(_ context.Context, orderID, gatewayOrderID, paymentID string) (*repository.ConfirmResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if gatewayOrderID != "" &&
		(order.GatewayOrderID == nil || *order.GatewayOrderID != gatewayOrderID) {
		return nil, repository.ErrGatewayOrderMismatch
	}
	return m.confirmLocked(order, paymentID)
}

func (m *mockStore) ConfirmOrderPaidByGatewayID(_ context.Context, gatewayOrderID, paymentID string) (*repository.ConfirmResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, order := range m.orders {
		if order.GatewayOrderID != nil && *order.GatewayOrderID == gatewayOrderID {
			return m.confirmLocked(order, paymentID)
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// confirmLocked is the guarded transition: already paid means no-op, and a
// concurrently taken slot fails the whole confirmation, as the transaction
// does in the real store.
func (m *mockStore) confirmLocked(order *models.Order, paymentID string) (*repository.ConfirmResult, error) {
	if order.Status == models.OrderStatusPaid {
		cp := *order
		return &repository.ConfirmResult{Order: &cp, Applied: false}, nil
	}

	var slot *mockSlot
	if order.SlotDateTime != nil && order.ServiceID != nil {
		if existing, ok := m.slots[slotKey(*order.ServiceID, *order.SlotDateTime)]; ok {
			if existing.booked {
				return nil, repository.ErrSlotUnavailable
			}
			slot = existing
		}
	}

	order.Status = models.OrderStatusPaid
	order.PaymentStatus = models.PaymentStatusPaid
	order.GatewayPaymentID = &paymentID
	order.Fulfilled = false
	if order.ProductID != nil {
		m.soldCounts[*order.ProductID]++
	}
	if slot != nil {
		slot.booked = true
	}
	cp := *order
	return &repository.ConfirmResult{Order: &cp, Applied: true}, nil
}

func (m *mockStore) MarkFulfilled(_ context.Context, orderID string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	order.Fulfilled = true
	cp := *order
	return &cp, nil
}

func (m *mockStore) ListOrders(_ context.Context, filter repository.OrderFilter) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for _, order := range m.orders {
		if filter.Email != "" && order.CustomerEmail != filter.Email {
			continue
		}
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		out = append(out, *order)
	}
	return out, nil
}

type mockGateway struct {
	mu     sync.Mutex
	calls  int
	fail   bool
}

func (g *mockGateway) CreateOrder(_ context.Context, amountPaise int64, receipt string, _ map[string]string) (*razorpay.GatewayOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail {
		return nil, errors.New("gateway unavailable")
	}
	g.calls++
	return &razorpay.GatewayOrder{
		ID:       fmt.Sprintf("gw_order_%d", g.calls),
		Amount:   amountPaise,
		Currency: "INR",
		Receipt:  receipt,
		Status:   "created",
	}, nil
}

type mockNotifier struct {
	mu    sync.Mutex
	sent  []string
}

func (n *mockNotifier) OrderConfirmed(order *models.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, order.ID)
}

const testSecret = "test-secret"

func newTestService(store *mockStore, gateway *mockGateway, notifier *mockNotifier) *Service {
	return NewService(store, gateway,
		ratelimit.NewMemoryLimiter(time.Minute),
		notifier, nil, zap.NewNop(), testSecret, 10)
}

func validCreateRequest() *CreateRequest {
	productID := "P1"
	return &CreateRequest{
		Type:          "custom-product",
		ProductID:     &productID,
		Amount:        99,
		CustomerName:  "A",
		CustomerEmail: "a@x.com",
		CustomerPhone: "9999999999",
	}
}

func TestCreate_Success(t *testing.T) {
	store := newMockStore()
	gateway := &mockGateway{}
	svc := newTestService(store, gateway, &mockNotifier{})

	res, err := svc.Create(context.Background(), "1.2.3.4", validCreateRequest())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if res.OrderID == "" || res.GatewayOrderID == "" {
		t.Fatal("expected order id and gateway order id")
	}
	if res.Amount != 99 {
		t.Errorf("expected amount 99, got %v", res.Amount)
	}

	order := store.orders[res.OrderID]
	if order == nil {
		t.Fatal("order not persisted")
	}
	if order.Status != models.OrderStatusPending || order.PaymentStatus != models.PaymentStatusPending {
		t.Errorf("new order must be pending, got %s/%s", order.Status, order.PaymentStatus)
	}
	if order.Fulfilled {
		t.Error("new order must not be fulfilled")
	}
	if order.ProductID == nil || *order.ProductID != "P1" {
		t.Error("product reference not bound")
	}
	if order.ServiceID != nil {
		t.Error("product-backed order must not bind a service")
	}
	if order.GatewayOrderID == nil || *order.GatewayOrderID != res.GatewayOrderID {
		t.Error("gateway order id not persisted")
	}
	if len(store.usersByKey) != 1 {
		t.Errorf("expected one user row, got %d", len(store.usersByKey))
	}
}

func TestCreate_ValidationAccumulatesAllFields(t *testing.T) {
	svc := newTestService(newMockStore(), &mockGateway{}, &mockNotifier{})

	req := &CreateRequest{
		Type:          "custom-product",
		Amount:        50,
		CustomerEmail: "bad-email",
		CustomerPhone: "12345",
	}
	_, err := svc.Create(context.Background(), "1.2.3.4", req)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := verr.Fields["customerEmail"]; !ok {
		t.Error("expected customerEmail violation")
	}
	if _, ok := verr.Fields["customerPhone"]; !ok {
		t.Error("expected customerPhone violation")
	}
	if _, ok := verr.Fields["customerName"]; !ok {
		t.Error("expected customerName violation")
	}
}

func TestCreate_UnknownType(t *testing.T) {
	svc := newTestService(newMockStore(), &mockGateway{}, &mockNotifier{})

	req := validCreateRequest()
	req.Type = "mystery"
	_, err := svc.Create(context.Background(), "1.2.3.4", req)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := verr.Fields["type"]; !ok {
		t.Error("expected type violation")
	}
}

func TestCreate_RateLimited(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, &mockGateway{}, &mockNotifier{})

	for i := 0; i < 10; i++ {
		if _, err := svc.Create(context.Background(), "1.2.3.4", validCreateRequest()); err != nil {
			t.Fatalf("request %d failed: %v", i+1, err)
		}
	}

	_, err := svc.Create(context.Background(), "1.2.3.4", validCreateRequest())
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("11th request should be rate limited, got %v", err)
	}

	// A different client is unaffected.
	if _, err := svc.Create(context.Background(), "5.6.7.8", validCreateRequest()); err != nil {
		t.Errorf("other client should pass: %v", err)
	}
}

func TestCreate_GatewayFailureLeavesPendingOrphan(t *testing.T) {
	store := newMockStore()
	gateway := &mockGateway{fail: true}
	svc := newTestService(store, gateway, &mockNotifier{})

	_, err := svc.Create(context.Background(), "1.2.3.4", validCreateRequest())

	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected GatewayError, got %v", err)
	}

	if len(store.orders) != 1 {
		t.Fatalf("expected the pending order row to remain, got %d", len(store.orders))
	}
	for _, order := range store.orders {
		if order.Status != models.OrderStatusPending {
			t.Errorf("orphan must stay pending, got %s", order.Status)
		}
		if order.GatewayOrderID != nil {
			t.Error("orphan must have no gateway order id")
		}
	}
}

func TestCreate_ConcurrentUpsertSingleUser(t *testing.T) {
	store := newMockStore()
	svc := NewService(store, &mockGateway{},
		ratelimit.NewMemoryLimiter(time.Minute),
		&mockNotifier{}, nil, zap.NewNop(), testSecret, 1000)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Create(context.Background(), "1.2.3.4", validCreateRequest())
		}()
	}
	wg.Wait()

	if len(store.usersByKey) != 1 {
		t.Errorf("expected exactly one user row after concurrent creates, got %d", len(store.usersByKey))
	}
}

func TestConfirmPayment_Success(t *testing.T) {
	store := newMockStore()
	notifier := &mockNotifier{}
	svc := newTestService(store, &mockGateway{}, notifier)

	res, err := svc.Create(context.Background(), "1.2.3.4", validCreateRequest())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	sig := razorpay.PaymentSignature(testSecret, res.GatewayOrderID, "pay_1")
	order, err := svc.ConfirmPayment(context.Background(), &VerifyRequest{
		GatewayOrderID:   res.GatewayOrderID,
		GatewayPaymentID: "pay_1",
		GatewaySignature: sig,
		OrderID:          res.OrderID,
	})
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	if order.Status != models.OrderStatusPaid || order.PaymentStatus != models.PaymentStatusPaid {
		t.Errorf("expected paid order, got %s/%s", order.Status, order.PaymentStatus)
	}
	if order.GatewayPaymentID == nil || *order.GatewayPaymentID != "pay_1" {
		t.Error("gateway payment id not recorded")
	}
	if order.Fulfilled {
		t.Error("payment confirmation must not mark the order fulfilled")
	}
	if store.soldCounts["P1"] != 1 {
		t.Errorf("expected sold count 1, got %d", store.soldCounts["P1"])
	}
	if len(notifier.sent) != 1 {
		t.Errorf("expected one confirmation email, got %d", len(notifier.sent))
	}
}

func TestConfirmPayment_BadSignatureNoStateChange(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, &mockGateway{}, &mockNotifier{})

	res, err := svc.Create(context.Background(), "1.2.3.4", validCreateRequest())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	forged := razorpay.PaymentSignature("wrong-secret", res.GatewayOrderID, "pay_1")
	_, err = svc.ConfirmPayment(context.Background(), &VerifyRequest{
		GatewayOrderID:   res.GatewayOrderID,
		GatewayPaymentID: "pay_1",
		GatewaySignature: forged,
		OrderID:          res.OrderID,
	})
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}

	order := store.orders[res.OrderID]
	if order.Status != models.OrderStatusPending {
		t.Error("order state must be unchanged after a rejected signature")
	}
	if store.soldCounts["P1"] != 0 {
		t.Error("sold count must be unchanged after a rejected signature")
	}
}

func slotCreateRequest(slotDateTime string) *CreateRequest {
	serviceID := "S1"
	slot := slotDateTime
	return &CreateRequest{
		Type:          "custom-service",
		ServiceID:     &serviceID,
		Amount:        500,
		CustomerName:  "A",
		CustomerEmail: "a@x.com",
		CustomerPhone: "9999999999",
		SlotDateTime:  &slot,
	}
}

func TestConfirmPayment_BooksSlot(t *testing.T) {
	store := newMockStore()
	slotAt := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	store.addSlot("S1", slotAt, false)
	svc := newTestService(store, &mockGateway{}, &mockNotifier{})

	res, err := svc.Create(context.Background(), "1.2.3.4", slotCreateRequest(slotAt.Format(time.RFC3339)))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if store.slotBooked("S1", slotAt) {
		t.Fatal("slot must not be booked before payment")
	}

	sig := razorpay.PaymentSignature(testSecret, res.GatewayOrderID, "pay_1")
	order, err := svc.ConfirmPayment(context.Background(), &VerifyRequest{
		GatewayOrderID:   res.GatewayOrderID,
		GatewayPaymentID: "pay_1",
		GatewaySignature: sig,
		OrderID:          res.OrderID,
	})
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if order.Status != models.OrderStatusPaid {
		t.Errorf("expected paid order, got %s", order.Status)
	}
	if !store.slotBooked("S1", slotAt) {
		t.Error("confirmation must book the slot")
	}
}

func TestConfirmPayment_SlotNormalizedAcrossZones(t *testing.T) {
	store := newMockStore()
	// Same instant as 2026-09-01T10:00:00Z, submitted with an IST offset.
	slotUTC := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	store.addSlot("S1", slotUTC, false)
	svc := newTestService(store, &mockGateway{}, &mockNotifier{})

	res, err := svc.Create(context.Background(), "1.2.3.4", slotCreateRequest("2026-09-01T15:30:00+05:30"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	order := store.orders[res.OrderID]
	if order.SlotDateTime == nil || !order.SlotDateTime.Equal(slotUTC) {
		t.Fatalf("slot time not canonicalized, got %v", order.SlotDateTime)
	}

	sig := razorpay.PaymentSignature(testSecret, res.GatewayOrderID, "pay_1")
	if _, err := svc.ConfirmPayment(context.Background(), &VerifyRequest{
		GatewayOrderID:   res.GatewayOrderID,
		GatewayPaymentID: "pay_1",
		GatewaySignature: sig,
		OrderID:          res.OrderID,
	}); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if !store.slotBooked("S1", slotUTC) {
		t.Error("offset submission must still book the matching slot")
	}
}

func TestConfirmPayment_SlotTaken(t *testing.T) {
	store := newMockStore()
	slotAt := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	notifier := &mockNotifier{}
	svc := newTestService(store, &mockGateway{}, notifier)

	res, err := svc.Create(context.Background(), "1.2.3.4", slotCreateRequest(slotAt.Format(time.RFC3339)))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Another order takes the slot between checkout and confirmation.
	store.addSlot("S1", slotAt, true)

	sig := razorpay.PaymentSignature(testSecret, res.GatewayOrderID, "pay_1")
	_, err = svc.ConfirmPayment(context.Background(), &VerifyRequest{
		GatewayOrderID:   res.GatewayOrderID,
		GatewayPaymentID: "pay_1",
		GatewaySignature: sig,
		OrderID:          res.OrderID,
	})
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}

	if store.orders[res.OrderID].Status != models.OrderStatusPending {
		t.Error("order must stay pending when the slot was taken")
	}
	if len(notifier.sent) != 0 {
		t.Error("no confirmation email for a rejected confirmation")
	}
}

func TestWebhook_SlotTakenAcknowledged(t *testing.T) {
	store := newMockStore()
	slotAt := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	notifier := &mockNotifier{}
	svc := newTestService(store, &mockGateway{}, notifier)

	res, err := svc.Create(context.Background(), "1.2.3.4", slotCreateRequest(slotAt.Format(time.RFC3339)))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	store.addSlot("S1", slotAt, true)

	body := webhookBody(res.GatewayOrderID, "pay_wh")
	sig := razorpay.WebhookSignature(testSecret, body)

	// The delivery must be acked so the gateway stops retrying.
	if err := svc.HandleWebhook(context.Background(), body, sig); err != nil {
		t.Fatalf("webhook with a lost slot must be acknowledged, got %v", err)
	}

	if store.orders[res.OrderID].Status != models.OrderStatusPending {
		t.Error("order must stay pending when the slot was taken")
	}
	if len(notifier.sent) != 0 {
		t.Error("no confirmation email for a rejected confirmation")
	}
}

func TestConfirmPayment_WrongOrderRejected(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, &mockGateway{}, &mockNotifier{})

	resA, err := svc.Create(context.Background(), "1.2.3.4", validCreateRequest())
	if err != nil {
		t.Fatalf("create A failed: %v", err)
	}
	resB, err := svc.Create(context.Background(), "1.2.3.4", validCreateRequest())
	if err != nil {
		t.Fatalf("create B failed: %v", err)
	}

	// A signature that is valid for order A, replayed against order B.
	sig := razorpay.PaymentSignature(testSecret, resA.GatewayOrderID, "pay_1")
	_, err = svc.ConfirmPayment(context.Background(), &VerifyRequest{
		GatewayOrderID:   resA.GatewayOrderID,
		GatewayPaymentID: "pay_1",
		GatewaySignature: sig,
		OrderID:          resB.OrderID,
	})
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
	if store.orders[resB.OrderID].Status != models.OrderStatusPending {
		t.Error("the replayed-against order must stay pending")
	}
	if store.soldCounts["P1"] != 0 {
		t.Error("sold count must be unchanged")
	}
}

func webhookBody(gatewayOrderID, paymentID string) []byte {
	return []byte(fmt.Sprintf(
		`{"event":"payment.captured","payload":{"payment":{"entity":{"id":%q,"order_id":%q}}}}`,
		paymentID, gatewayOrderID))
}

func TestWebhook_ConfirmsPayment(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, &mockGateway{}, &mockNotifier{})

	res, _ := svc.Create(context.Background(), "1.2.3.4", validCreateRequest())

	body := webhookBody(res.GatewayOrderID, "pay_wh")
	sig := razorpay.WebhookSignature(testSecret, body)

	if err := svc.HandleWebhook(context.Background(), body, sig); err != nil {
		t.Fatalf("webhook failed: %v", err)
	}

	order := store.orders[res.OrderID]
	if order.Status != models.OrderStatusPaid {
		t.Errorf("expected paid order, got %s", order.Status)
	}
	if store.soldCounts["P1"] != 1 {
		t.Errorf("expected sold count 1, got %d", store.soldCounts["P1"])
	}
}

func TestWebhook_AfterCallbackIsNoOp(t *testing.T) {
	store := newMockStore()
	notifier := &mockNotifier{}
	svc := newTestService(store, &mockGateway{}, notifier)

	res, _ := svc.Create(context.Background(), "1.2.3.4", validCreateRequest())

	sig := razorpay.PaymentSignature(testSecret, res.GatewayOrderID, "pay_1")
	if _, err := svc.ConfirmPayment(context.Background(), &VerifyRequest{
		GatewayOrderID:   res.GatewayOrderID,
		GatewayPaymentID: "pay_1",
		GatewaySignature: sig,
		OrderID:          res.OrderID,
	}); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	body := webhookBody(res.GatewayOrderID, "pay_1")
	whSig := razorpay.WebhookSignature(testSecret, body)
	if err := svc.HandleWebhook(context.Background(), body, whSig); err != nil {
		t.Fatalf("redundant webhook must still succeed: %v", err)
	}

	if store.soldCounts["P1"] != 1 {
		t.Errorf("sold count must stay at 1 after redundant webhook, got %d", store.soldCounts["P1"])
	}
	if len(notifier.sent) != 1 {
		t.Errorf("expected a single confirmation email, got %d", len(notifier.sent))
	}
}

func TestWebhook_DuplicateDelivery(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, &mockGateway{}, &mockNotifier{})

	res, _ := svc.Create(context.Background(), "1.2.3.4", validCreateRequest())

	body := webhookBody(res.GatewayOrderID, "pay_wh")
	sig := razorpay.WebhookSignature(testSecret, body)

	for i := 0; i < 3; i++ {
		if err := svc.HandleWebhook(context.Background(), body, sig); err != nil {
			t.Fatalf("delivery %d failed: %v", i+1, err)
		}
	}

	if store.soldCounts["P1"] != 1 {
		t.Errorf("expected sold count 1 after repeated deliveries, got %d", store.soldCounts["P1"])
	}
}

func TestWebhook_BadSignature(t *testing.T) {
	svc := newTestService(newMockStore(), &mockGateway{}, &mockNotifier{})

	body := webhookBody("gw_order_1", "pay_1")
	err := svc.HandleWebhook(context.Background(), body, "not-a-signature")
	if !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestWebhook_UnknownOrderAcknowledged(t *testing.T) {
	svc := newTestService(newMockStore(), &mockGateway{}, &mockNotifier{})

	body := webhookBody("gw_order_missing", "pay_1")
	sig := razorpay.WebhookSignature(testSecret, body)

	if err := svc.HandleWebhook(context.Background(), body, sig); err != nil {
		t.Errorf("unknown order must be acknowledged, got %v", err)
	}
}

func TestWebhook_IgnoresOtherEvents(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, &mockGateway{}, &mockNotifier{})

	res, _ := svc.Create(context.Background(), "1.2.3.4", validCreateRequest())

	body := []byte(fmt.Sprintf(
		`{"event":"payment.failed","payload":{"payment":{"entity":{"id":"pay_1","order_id":%q}}}}`,
		res.GatewayOrderID))
	sig := razorpay.WebhookSignature(testSecret, body)

	if err := svc.HandleWebhook(context.Background(), body, sig); err != nil {
		t.Fatalf("webhook failed: %v", err)
	}
	if store.orders[res.OrderID].Status != models.OrderStatusPending {
		t.Error("non-captured events must not change order state")
	}
}

func TestFulfill(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, &mockGateway{}, &mockNotifier{})

	res, _ := svc.Create(context.Background(), "1.2.3.4", validCreateRequest())

	order, err := svc.Fulfill(context.Background(), res.OrderID)
	if err != nil {
		t.Fatalf("fulfill failed: %v", err)
	}
	if !order.Fulfilled {
		t.Error("expected fulfilled order")
	}
}

func TestFulfill_NotFound(t *testing.T) {
	svc := newTestService(newMockStore(), &mockGateway{}, &mockNotifier{})

	_, err := svc.Fulfill(context.Background(), "no-such-order")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
