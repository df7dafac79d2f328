package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/models"
	"gopkg.in/gomail.v2"
)

// Mailer sends the order-confirmation email over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	appURL string
}

func NewMailer(cfg *config.SMTPConfig, appURL string) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		appURL: appURL,
	}
}

var confirmationTmpl = template.Must(template.New("order-confirmation").Parse(`<!DOCTYPE html>
<html>
  <body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
      <h2>Order Confirmation</h2>
      <p>Hi {{.CustomerName}},</p>
      <p>Thank you for your purchase! Your order has been confirmed.</p>
      <h3>Order Details:</h3>
      <p><strong>Order ID:</strong> #{{.ShortID}}</p>
      <p><strong>Amount:</strong> &#8377;{{printf "%.2f" .Amount}}</p>
      <p><strong>Date:</strong> {{.Date}}</p>
      {{if .SlotTime}}<p><strong>Scheduled Slot:</strong> {{.SlotTime}}</p>{{end}}
      <p>You can view your order details and download your invoice from your account.</p>
      <p><a href="{{.AccountURL}}">View Order</a></p>
    </div>
  </body>
</html>`))

type confirmationData struct {
	CustomerName string
	ShortID      string
	Amount       float64
	Date         string
	SlotTime     string
	AccountURL   string
}

// SendOrderConfirmation renders and sends the confirmation email for a paid
// order.
func (m *Mailer) SendOrderConfirmation(order *models.Order) error {
	data := confirmationData{
		CustomerName: order.CustomerName,
		ShortID:      shortID(order.ID),
		Amount:       order.Amount,
		Date:         order.CreatedAt.Format("02 Jan 2006"),
		AccountURL:   m.appURL + "/account",
	}
	if order.SlotDateTime != nil {
		data.SlotTime = order.SlotDateTime.Format(time.RFC1123)
	}

	var body bytes.Buffer
	if err := confirmationTmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render confirmation email: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", order.CustomerEmail)
	msg.SetHeader("Subject", "Order Confirmation")
	msg.SetBody("text/html", body.String())

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send confirmation email: %w", err)
	}
	return nil
}

// shortID is the last 8 characters of the order id, uppercased, shown as
// the human-facing order number.
func shortID(id string) string {
	if len(id) > 8 {
		id = id[len(id)-8:]
	}
	return strings.ToUpper(id)
}
