package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/greentradehq/greentrade-backend/pkg/enums"
)

// OrderItem is the frozen snapshot of one listing at purchase time. Price
// fields never track later listing changes.
type OrderItem struct {
	ID                uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	OrderID           uuid.UUID              `gorm:"column:order_id;type:uuid;not null"`
	ListingID         uuid.UUID              `gorm:"column:listing_id;type:uuid;not null"`
	SellerID          uuid.UUID              `gorm:"column:seller_id;type:uuid;not null"`
	Title             string                 `gorm:"column:title;not null"`
	Unit              enums.ListingUnit      `gorm:"column:unit;type:text;not null"`
	Qty               int                    `gorm:"column:qty;not null"`
	PricePerUnitCents int                    `gorm:"column:price_per_unit_cents;not null"`
	DiscountCents     int                    `gorm:"column:discount_cents;not null;default:0"`
	TaxCents          int                    `gorm:"column:tax_cents;not null;default:0"`
	TotalCents        int                    `gorm:"column:total_cents;not null"`
	Status            enums.OrderItemStatus  `gorm:"column:status;type:text;not null;default:'pending'"`
	Notes             *string                `gorm:"column:notes"`
	StatusHistory     []OrderItemStatusEvent `gorm:"foreignKey:OrderItemID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
