package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greentradehq/greentrade-backend/pkg/enums"
	"github.com/greentradehq/greentrade-backend/pkg/types"
)

// Order is the root aggregate for a buyer's purchase. Status changes go
// through the state machine only; the version column backs the
// compare-and-swap guard against concurrent mutation of the same order.
type Order struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber     string               `gorm:"column:order_number;not null;uniqueIndex:ux_orders_order_number"`
	BuyerID         uuid.UUID            `gorm:"column:buyer_id;type:uuid;not null"`
	Status          enums.OrderStatus    `gorm:"column:status;type:text;not null;default:'pending'"`
	Version         int                  `gorm:"column:version;not null;default:1"`
	Currency        enums.Currency       `gorm:"column:currency;type:text;not null;default:'USD'"`
	SubtotalCents   int                  `gorm:"column:subtotal_cents;not null"`
	DiscountCents   int                  `gorm:"column:discount_cents;not null;default:0"`
	TaxCents        int                  `gorm:"column:tax_cents;not null;default:0"`
	ShippingCents   int                  `gorm:"column:shipping_cents;not null;default:0"`
	TotalCents      int                  `gorm:"column:total_cents;not null"`
	ShippingAddress *types.Address       `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	DeliveryMethod  enums.DeliveryMethod `gorm:"column:delivery_method;type:text;not null;default:'courier'"`
	Tracking        *types.TrackingInfo  `gorm:"column:tracking;type:jsonb;serializer:json"`
	Cancellation    *types.Cancellation  `gorm:"column:cancellation;type:jsonb;serializer:json"`
	ReturnRequest   *types.ReturnRequest `gorm:"column:return_request;type:jsonb;serializer:json"`
	ConfirmedAt     *time.Time           `gorm:"column:confirmed_at"`
	ShippedAt       *time.Time           `gorm:"column:shipped_at"`
	DeliveredAt     *time.Time           `gorm:"column:delivered_at"`
	CompletedAt     *time.Time           `gorm:"column:completed_at"`
	CancelledAt     *time.Time           `gorm:"column:cancelled_at"`
	Items           []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payment         *PaymentRecord       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	StatusHistory   []OrderStatusEvent   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt       gorm.DeletedAt       `gorm:"column:deleted_at;index"`
}

// SellerIDs collects the distinct sellers referenced by the order's items,
// preserving first-appearance order.
func (o *Order) SellerIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(o.Items))
	ids := make([]uuid.UUID, 0, len(o.Items))
	for _, item := range o.Items {
		if _, ok := seen[item.SellerID]; ok {
			continue
		}
		seen[item.SellerID] = struct{}{}
		ids = append(ids, item.SellerID)
	}
	return ids
}
