package libs

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/acostajs/vanier-custom-keyboard-collective/models"
	"gopkg.in/gomail.v2"
)

var ErrMailerNotConfigured = errors.New("SMTP configuration missing")

type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewMailer(host string, port int, user, pass, from string) (*Mailer, error) {
	if host == "" || user == "" || pass == "" {
		return nil, ErrMailerNotConfigured
	}
	if port == 0 {
		port = 587
	}
	return &Mailer{
		dialer: gomail.NewDialer(host, port, user, pass),
		from:   from,
	}, nil
}

// SendOrderConfirmation mails the paid order summary to the customer email captured at fulfillment.
func (m *Mailer) SendOrderConfirmation(ctx context.Context, order *models.Order) error {
	if order.CustomerEmail == nil || *order.CustomerEmail == "" {
		return fmt.Errorf("order %d has no customer email", order.ID)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := buildOrderConfirmation(m.from, order)
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func buildOrderConfirmation(from string, order *models.Order) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", *order.CustomerEmail)
	m.SetHeader("Subject", fmt.Sprintf("Order Confirmation #%s - Keyboard Collective", order.Number()))
	m.SetBody("text/html", orderConfirmationHTML(order))
	return m
}

func orderConfirmationHTML(order *models.Order) string {
	name := "there"
	if order.CustomerName != nil && *order.CustomerName != "" {
		name = *order.CustomerName
	}

	var rows strings.Builder
	for _, item := range order.Items {
		fmt.Fprintf(&rows, `
            <tr>
                <td>%s</td>
                <td style="text-align:center;">%d</td>
                <td style="text-align:right;">%s</td>
                <td style="text-align:right;">%s</td>
            </tr>`,
			html.EscapeString(item.ProductName),
			item.Quantity,
			models.FormatCents(item.UnitPriceCents),
			models.FormatCents(item.LineTotalCents()),
		)
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; background-color: #f4f4f4; padding: 20px; }
        .container { max-width: 600px; margin: 0 auto; background-color: white; padding: 30px; border-radius: 10px; }
        .logo { font-size: 24px; font-weight: bold; color: #1f2937; text-align: center; margin-bottom: 30px; }
        .order-box { background-color: #f3f4f6; padding: 20px; margin: 20px 0; border-radius: 8px; }
        table { width: 100%%; border-collapse: collapse; }
        td, th { padding: 6px 4px; border-bottom: 1px solid #e5e7eb; }
        .footer { text-align: center; margin-top: 30px; color: #666; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="logo">Keyboard Collective</div>
        <h2 style="color: #333;">Order Confirmation</h2>
        <p>Hi %s, thank you for your order!</p>

        <div class="order-box">
            <p><strong>Order Number:</strong> %s</p>
            <table>
            <tr><th style="text-align:left;">Item</th><th>Qty</th><th style="text-align:right;">Price</th><th style="text-align:right;">Total</th></tr>%s
            </table>
            <p style="text-align:right;"><strong>Order Total:</strong> %s</p>
        </div>

        <p>Your payment has been received. We'll let you know when your order ships.</p>

        <div class="footer">
            <p>This is an automated email. Please do not reply.</p>
        </div>
    </div>
</body>
</html>
	`, html.EscapeString(name), order.Number(), rows.String(), models.FormatCents(order.TotalCents))
}
