package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateOrder   OutboxAggregateType = "order"
	AggregateListing OutboxAggregateType = "listing"
	AggregatePayment OutboxAggregateType = "payment"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateListing,
	AggregatePayment,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventOrderCreated         OutboxEventType = "order_created"
	EventOrderConfirmed       OutboxEventType = "order_confirmed"
	EventOrderShipped         OutboxEventType = "order_shipped"
	EventOrderOutForDelivery  OutboxEventType = "order_out_for_delivery"
	EventOrderDelivered       OutboxEventType = "order_delivered"
	EventOrderCompleted       OutboxEventType = "order_completed"
	EventOrderCancelled       OutboxEventType = "order_cancelled"
	EventOrderReturnRequested OutboxEventType = "order_return_requested"
	EventOrderReturned        OutboxEventType = "order_returned"
	EventOrderRefunded        OutboxEventType = "order_refunded"
	EventPaymentRecorded      OutboxEventType = "payment_recorded"
	EventListingOutOfStock    OutboxEventType = "listing_out_of_stock"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderConfirmed,
	EventOrderShipped,
	EventOrderOutForDelivery,
	EventOrderDelivered,
	EventOrderCompleted,
	EventOrderCancelled,
	EventOrderReturnRequested,
	EventOrderReturned,
	EventOrderRefunded,
	EventPaymentRecorded,
	EventListingOutOfStock,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
