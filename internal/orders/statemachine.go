package orders

import (
	"fmt"
	"time"

	"github.com/greentradehq/greentrade-backend/pkg/db/models"
	"github.com/greentradehq/greentrade-backend/pkg/enums"
	pkgerrors "github.com/greentradehq/greentrade-backend/pkg/errors"
)

// transitions is the complete order lifecycle graph. A status missing from
// the map, or an empty target list, is terminal.
var transitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending: {
		enums.OrderStatusConfirmed,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusConfirmed: {
		enums.OrderStatusProcessing,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusProcessing: {
		enums.OrderStatusPartiallyShipped,
		enums.OrderStatusShipped,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusPartiallyShipped: {
		enums.OrderStatusShipped,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusShipped: {
		enums.OrderStatusOutForDelivery,
		enums.OrderStatusDelivered,
		enums.OrderStatusReturned,
	},
	enums.OrderStatusOutForDelivery: {
		enums.OrderStatusDelivered,
		enums.OrderStatusReturned,
	},
	enums.OrderStatusDelivered: {
		enums.OrderStatusCompleted,
		enums.OrderStatusReturned,
	},
	enums.OrderStatusCompleted: {
		enums.OrderStatusReturned,
	},
	enums.OrderStatusCancelled: {},
	enums.OrderStatusReturned: {
		enums.OrderStatusRefunded,
	},
	enums.OrderStatusRefunded: {},
}

// CanTransition reports whether the lifecycle graph permits from -> to.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, candidate := range transitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// TransitionsFrom returns the statuses reachable in one step.
func TransitionsFrom(from enums.OrderStatus) []enums.OrderStatus {
	targets := transitions[from]
	out := make([]enums.OrderStatus, len(targets))
	copy(out, targets)
	return out
}

// Transition validates the move and applies it to the order in memory,
// stamping the matching milestone timestamp. Persistence stays with the
// caller so the change lands under its compare-and-swap guard.
func Transition(order *models.Order, to enums.OrderStatus, now time.Time) error {
	if order == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "order is required")
	}
	if !to.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", to))
	}
	if !CanTransition(order.Status, to) {
		return pkgerrors.New(pkgerrors.CodeInvalidTransition,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, to)).
			WithDetails(map[string]any{
				"from":    order.Status,
				"to":      to,
				"allowed": TransitionsFrom(order.Status),
			})
	}

	order.Status = to
	switch to {
	case enums.OrderStatusConfirmed:
		order.ConfirmedAt = &now
	case enums.OrderStatusShipped:
		order.ShippedAt = &now
	case enums.OrderStatusDelivered:
		order.DeliveredAt = &now
	case enums.OrderStatusCompleted:
		order.CompletedAt = &now
	case enums.OrderStatusCancelled:
		order.CancelledAt = &now
	}
	return nil
}

// eventForStatus maps lifecycle milestones to their outbox event types.
// Intermediate fulfilment statuses deliberately stay silent.
func eventForStatus(status enums.OrderStatus) (enums.OutboxEventType, bool) {
	switch status {
	case enums.OrderStatusConfirmed:
		return enums.EventOrderConfirmed, true
	case enums.OrderStatusShipped:
		return enums.EventOrderShipped, true
	case enums.OrderStatusOutForDelivery:
		return enums.EventOrderOutForDelivery, true
	case enums.OrderStatusDelivered:
		return enums.EventOrderDelivered, true
	case enums.OrderStatusCompleted:
		return enums.EventOrderCompleted, true
	case enums.OrderStatusCancelled:
		return enums.EventOrderCancelled, true
	case enums.OrderStatusReturned:
		return enums.EventOrderReturned, true
	case enums.OrderStatusRefunded:
		return enums.EventOrderRefunded, true
	default:
		return "", false
	}
}
