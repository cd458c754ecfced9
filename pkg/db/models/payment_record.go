package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/greentradehq/greentrade-backend/pkg/enums"
)

// PaymentRecord stores gateway-reported outcomes for an order. The engine
// never talks to a gateway; it only reconciles what the gateway reported.
type PaymentRecord struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderID           uuid.UUID           `gorm:"column:order_id;type:uuid;not null;uniqueIndex:ux_payment_records_order_id"`
	Method            enums.PaymentMethod `gorm:"column:method;type:text;not null;default:'cash_on_delivery'"`
	Status            enums.PaymentStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	PaidAmountCents   int                 `gorm:"column:paid_amount_cents;not null;default:0"`
	TransactionID     *string             `gorm:"column:transaction_id"`
	PaidAt            *time.Time          `gorm:"column:paid_at"`
	AmountDiscrepancy bool                `gorm:"column:amount_discrepancy;not null;default:false"`
	FailureReason     *string             `gorm:"column:failure_reason"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
