package notify

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/storefront/pkg/models"
	"go.uber.org/zap"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (m *recordingMailer) SendOrderConfirmation(order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, order.ID)
	return m.err
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestNotifier_SendsConfirmation(t *testing.T) {
	mailer := &recordingMailer{}
	notifier, err := NewNotifier(mailer, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to start notifier: %v", err)
	}
	defer notifier.Shutdown()

	notifier.OrderConfirmed(&models.Order{ID: "ord-1", CustomerEmail: "a@x.com"})

	waitFor(t, func() bool { return mailer.count() == 1 })
}

func TestNotifier_SwallowsMailerFailure(t *testing.T) {
	mailer := &recordingMailer{err: errors.New("smtp down")}
	notifier, err := NewNotifier(mailer, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to start notifier: %v", err)
	}
	defer notifier.Shutdown()

	// Must not panic or block the caller.
	notifier.OrderConfirmed(&models.Order{ID: "ord-1", CustomerEmail: "a@x.com"})
	notifier.OrderConfirmed(&models.Order{ID: "ord-2", CustomerEmail: "b@x.com"})

	waitFor(t, func() bool { return mailer.count() == 2 })
}

func TestShortID(t *testing.T) {
	if got := shortID("3f2a9c1e-77aa-4f1a-9c0d-abcdef012345"); got != "EF012345" {
		t.Errorf("unexpected short id %q", got)
	}
	if got := shortID("abc"); got != "ABC" {
		t.Errorf("unexpected short id %q", got)
	}
}
