// Package messaging builds the WhatsApp order summary and schedules its
// handoff after a successful checkout.
package messaging

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/domain"
)

// DefaultBaseURL is the WhatsApp click-to-chat endpoint.
const DefaultBaseURL = "https://wa.me"

// OrderSummary is everything the shop owner needs to verify a manual payment.
type OrderSummary struct {
	OrderNumber   string
	Customer      domain.CustomerInfo
	Method        domain.PaymentMethod
	Items         []domain.LineItem
	Total         domain.Money
	ScreenshotURL string
}

// NewOrderSummary assembles a summary from the cart snapshot an order was
// built from.
func NewOrderSummary(orderNumber string, snapshot *domain.Cart, customer domain.CustomerInfo, payment domain.PaymentInfo) OrderSummary {
	items := make([]domain.LineItem, len(snapshot.Items))
	copy(items, snapshot.Items)
	return OrderSummary{
		OrderNumber:   orderNumber,
		Customer:      customer,
		Method:        payment.Method,
		Items:         items,
		Total:         snapshot.Total(),
		ScreenshotURL: payment.ScreenshotURL,
	}
}

// Text renders the summary as the chat message body.
func (s OrderSummary) Text() string {
	var b strings.Builder
	b.WriteString("🛍️ *New Order Received*\n")
	b.WriteString("———————————————\n")
	if s.OrderNumber != "" {
		fmt.Fprintf(&b, "🔖 Order #: %s\n", s.OrderNumber)
	}
	fmt.Fprintf(&b, "👤 Name: %s\n", s.Customer.Name)
	fmt.Fprintf(&b, "📞 Phone: %s\n", s.Customer.Phone)
	if s.Customer.Email != "" {
		fmt.Fprintf(&b, "✉️ Email: %s\n", s.Customer.Email)
	}
	fmt.Fprintf(&b, "🏠 Address: %s\n\n", s.Customer.Address)

	fmt.Fprintf(&b, "💳 Payment Method: %s\n", strings.ToUpper(string(s.Method)))
	fmt.Fprintf(&b, "🔢 Pay To: %s\n\n", s.Method.Account())

	b.WriteString("📦 Order:\n")
	if len(s.Items) == 0 {
		b.WriteString("No items\n")
	}
	for _, item := range s.Items {
		fmt.Fprintf(&b, "%s x %d = %s\n", item.Name, item.Quantity, item.Subtotal())
	}

	fmt.Fprintf(&b, "\n💵 Total: %s\n", s.Total)
	if s.ScreenshotURL != "" {
		fmt.Fprintf(&b, "\n📷 Payment Screenshot:\n%s\n", s.ScreenshotURL)
	} else {
		b.WriteString("\n📷 Payment Screenshot: (not uploaded)\n")
	}
	b.WriteString("\n*Note:* Please confirm receipt and process the order.")
	return b.String()
}

// DeepLink returns a click-to-chat URL that opens a chat with phone,
// pre-filled with text. Spaces are encoded as %20 so every client decodes
// the message the same way.
func DeepLink(baseURL, phone, text string) string {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	phone = strings.TrimPrefix(strings.TrimSpace(phone), "+")
	encoded := strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	return strings.TrimRight(baseURL, "/") + "/" + url.PathEscape(phone) + "?text=" + encoded
}
