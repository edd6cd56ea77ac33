package domain

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusProcessing OrderStatus = "processing"
	StatusDispatched OrderStatus = "dispatched"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// statusFlow is the happy path an order moves through. Cancelled sits outside it.
var statusFlow = []OrderStatus{
	StatusPending,
	StatusConfirmed,
	StatusProcessing,
	StatusDispatched,
	StatusDelivered,
}

var statusText = map[OrderStatus][2]string{
	StatusPending:    {"Order Placed", "Your order has been received"},
	StatusConfirmed:  {"Order Confirmed", "Payment verified, order confirmed"},
	StatusProcessing: {"Processing", "Preparing your items"},
	StatusDispatched: {"Dispatched", "Order shipped, on the way"},
	StatusDelivered:  {"Delivered", "Order delivered successfully"},
	StatusCancelled:  {"Cancelled", "Order has been cancelled"},
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	_, ok := statusText[s]
	return ok
}

// TimelineStep is one rendered step of the order tracker.
type TimelineStep struct {
	Status      OrderStatus `json:"status"`
	Label       string      `json:"label"`
	Description string      `json:"description"`
	Active      bool        `json:"active"`
	Current     bool        `json:"current"`
}

// Timeline returns the tracker steps for an order in status s. A cancelled
// order yields a single cancelled step. Unknown statuses render the flow with
// nothing active.
func Timeline(s OrderStatus) []TimelineStep {
	if s == StatusCancelled {
		text := statusText[StatusCancelled]
		return []TimelineStep{{
			Status:      StatusCancelled,
			Label:       text[0],
			Description: text[1],
			Active:      true,
			Current:     true,
		}}
	}

	current := -1
	for i, st := range statusFlow {
		if st == s {
			current = i
			break
		}
	}

	steps := make([]TimelineStep, len(statusFlow))
	for i, st := range statusFlow {
		text := statusText[st]
		steps[i] = TimelineStep{
			Status:      st,
			Label:       text[0],
			Description: text[1],
			Active:      i <= current,
			Current:     i == current,
		}
	}
	return steps
}
