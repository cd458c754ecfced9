package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/greentradehq/greentrade-backend/pkg/enums"
)

// OrderEvent is the shared payload for every order lifecycle event. Consumers
// key off the outbox event type; the body is identical across transitions.
type OrderEvent struct {
	OrderNumber string            `json:"order_number"`
	BuyerID     uuid.UUID         `json:"buyer_id"`
	SellerIDs   []uuid.UUID       `json:"seller_ids"`
	Status      enums.OrderStatus `json:"status"`
	Timestamp   time.Time         `json:"timestamp"`
}

// PaymentRecordedEvent reports a reconciled gateway outcome.
type PaymentRecordedEvent struct {
	OrderNumber       string              `json:"order_number"`
	Method            enums.PaymentMethod `json:"method"`
	Status            enums.PaymentStatus `json:"status"`
	PaidAmountCents   int                 `json:"paid_amount_cents"`
	AmountDiscrepancy bool                `json:"amount_discrepancy"`
	Timestamp         time.Time           `json:"timestamp"`
}

// ListingOutOfStockEvent fires when a deduction empties a listing.
type ListingOutOfStockEvent struct {
	ListingID uuid.UUID `json:"listing_id"`
	SellerID  uuid.UUID `json:"seller_id"`
	Timestamp time.Time `json:"timestamp"`
}
