package orders

import (
	"time"

	"github.com/greentradehq/greentrade-backend/pkg/db/models"
	"github.com/greentradehq/greentrade-backend/pkg/enums"
)

// Policy holds the time-windowed business rules around cancellation and
// returns. The window values come from configuration.
type Policy struct {
	ReturnWindow time.Duration
}

// CanCancel reports whether a buyer may still cancel. Once any part of the
// order has shipped, cancellation closes and returns take over.
func (p Policy) CanCancel(status enums.OrderStatus) bool {
	switch status {
	case enums.OrderStatusPending,
		enums.OrderStatusConfirmed,
		enums.OrderStatusProcessing,
		enums.OrderStatusPartiallyShipped:
		return true
	default:
		return false
	}
}

// CanReturn reports whether a return request is admissible at the given
// moment. Delivery is required first; the window is measured from the
// delivered timestamp, inclusive at the boundary.
func (p Policy) CanReturn(order *models.Order, now time.Time) (bool, string) {
	if order.Status != enums.OrderStatusDelivered {
		return false, "order has not been delivered"
	}
	if order.DeliveredAt == nil {
		return false, "order has no delivery timestamp"
	}
	if now.Sub(*order.DeliveredAt) > p.ReturnWindow {
		return false, "return window has expired"
	}
	return true, ""
}
