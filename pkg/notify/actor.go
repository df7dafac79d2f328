package notify

import (
	"fmt"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/example/storefront/pkg/models"
	"go.uber.org/zap"
)

// OrderMailer is what the notification actor needs from the mail layer.
type OrderMailer interface {
	SendOrderConfirmation(order *models.Order) error
}

// orderConfirmed asks the actor to send the confirmation email for a paid
// order.
type orderConfirmed struct {
	Order *models.Order
}

// notificationActor serializes email dispatch off the request path. Send
// failures are logged and swallowed; payment confirmation must never fail
// because notification did.
type notificationActor struct {
	mailer OrderMailer
	logger *zap.Logger
}

func (a *notificationActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *orderConfirmed:
		a.logger.Info("Sending order confirmation",
			zap.String("order_id", msg.Order.ID),
			zap.String("recipient", msg.Order.CustomerEmail))

		if err := a.mailer.SendOrderConfirmation(msg.Order); err != nil {
			a.logger.Error("Failed to send confirmation email",
				zap.String("order_id", msg.Order.ID),
				zap.Error(err))
		}

	case *actor.Started:
		a.logger.Info("Notification actor started")

	case *actor.Stopping:
		a.logger.Info("Notification actor stopping")

	case *actor.Stopped:
		a.logger.Info("Notification actor stopped")
	}
}

// Notifier is the fire-and-forget handle the order service uses.
type Notifier struct {
	system *actor.ActorSystem
	pid    *actor.PID
}

func NewNotifier(mailer OrderMailer, logger *zap.Logger) (*Notifier, error) {
	system := actor.NewActorSystem()

	props := actor.PropsFromProducer(func() actor.Actor {
		return &notificationActor{
			mailer: mailer,
			logger: logger.Named("notification-actor"),
		}
	})
	pid, err := system.Root.SpawnNamed(props, "notification-actor")
	if err != nil {
		return nil, fmt.Errorf("failed to spawn notification actor: %w", err)
	}

	return &Notifier{system: system, pid: pid}, nil
}

// OrderConfirmed queues the confirmation email and returns immediately.
func (n *Notifier) OrderConfirmed(order *models.Order) {
	n.system.Root.Send(n.pid, &orderConfirmed{Order: order})
}

func (n *Notifier) Shutdown() {
	n.system.Root.Stop(n.pid)
	n.system.Shutdown()
}
