package domain

import (
	"fmt"
	"time"
)

// PaymentMethod is the manual transfer channel the customer paid through.
type PaymentMethod string

const (
	PaymentEasypaisa PaymentMethod = "easypaisa"
	PaymentBank      PaymentMethod = "bank"
)

// Valid reports whether m is a supported method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentEasypaisa || m == PaymentBank
}

// Account returns the destination account shown to the customer. It is
// display-only; nothing verifies the transfer.
func (m PaymentMethod) Account() string {
	switch m {
	case PaymentEasypaisa:
		return "03255313675 (Title: KHANSA FAHEEM)"
	case PaymentBank:
		return "08240111941210 (Meezan Bank, IBAN: PK32MEZN0008240111941210)"
	default:
		return ""
	}
}

// Label is the human readable name of the method.
func (m PaymentMethod) Label() string {
	switch m {
	case PaymentEasypaisa:
		return "EasyPaisa"
	case PaymentBank:
		return "Bank Transfer"
	default:
		return string(m)
	}
}

// CustomerInfo is the delivery contact attached to an order.
type CustomerInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// OrderItem is one line of an order as the remote API expects it. Price is in
// decimal rupees.
type OrderItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	ImageURL  string  `json:"imageUrl,omitempty"`
}

// PaymentInfo references the uploaded transfer screenshot.
type PaymentInfo struct {
	Method        PaymentMethod `json:"method"`
	ScreenshotURL string        `json:"screenshotUrl"`
}

// OrderRequest is the body of POST /orders/create.
type OrderRequest struct {
	CustomerInfo CustomerInfo `json:"customerInfo"`
	Items        []OrderItem  `json:"items"`
	PaymentInfo  PaymentInfo  `json:"paymentInfo"`
	TotalAmount  float64      `json:"totalAmount"`
}

// NewOrderRequest derives an order from a cart snapshot. Items map 1:1 to
// cart lines and the total is computed from the same snapshot.
func NewOrderRequest(snapshot *Cart, customer CustomerInfo, payment PaymentInfo) OrderRequest {
	items := make([]OrderItem, 0, len(snapshot.Items))
	for _, li := range snapshot.Items {
		items = append(items, OrderItem{
			ProductID: li.ID,
			Name:      li.Name,
			Quantity:  li.Quantity,
			Price:     li.UnitPrice.Rupees(),
			ImageURL:  li.ImageRef,
		})
	}
	return OrderRequest{
		CustomerInfo: customer,
		Items:        items,
		PaymentInfo:  payment,
		TotalAmount:  snapshot.Total().Rupees(),
	}
}

// CreatedOrder is the part of the create response the storefront relies on.
type CreatedOrder struct {
	ID          string `json:"_id"`
	OrderNumber string `json:"orderNumber"`
}

// Validate requires both identifiers; an order without them is a failure.
func (o *CreatedOrder) Validate() error {
	if o == nil || o.ID == "" || o.OrderNumber == "" {
		return fmt.Errorf("%w: response missing order id or order number", ErrOrderFailed)
	}
	return nil
}

// Confirmation is the transient state the success page reads exactly once.
type Confirmation struct {
	Reference    string    `json:"reference"`
	OrderNumber  string    `json:"orderNumber"`
	OrderID      string    `json:"orderId"`
	TotalAmount  Money     `json:"totalAmount"`
	CustomerName string    `json:"customerName"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Order is an order as the remote API returns it for history and tracking.
type Order struct {
	ID           string       `json:"_id"`
	OrderNumber  string       `json:"orderNumber"`
	Status       OrderStatus  `json:"status"`
	CustomerInfo CustomerInfo `json:"customerInfo"`
	Items        []OrderItem  `json:"items"`
	PaymentInfo  *PaymentInfo `json:"paymentInfo,omitempty"`
	TotalAmount  float64      `json:"totalAmount"`
	Notes        string       `json:"notes,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// OrderPage is one page of the admin order listing.
type OrderPage struct {
	Orders     []Order `json:"orders"`
	TotalPages int     `json:"totalPages"`
}

// OrderStats summarises orders for the admin dashboard.
type OrderStats struct {
	Total        int     `json:"total"`
	Pending      int     `json:"pending"`
	Delivered    int     `json:"delivered"`
	TotalRevenue float64 `json:"totalRevenue"`
}

// OrderFilter narrows the admin order listing.
type OrderFilter struct {
	Status OrderStatus
	Page   int
	Limit  int
}
