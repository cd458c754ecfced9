package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/greentradehq/greentrade-backend/pkg/enums"
)

// Listing is the sellable produce entry owned by a seller. Orders keep a
// weak reference plus a frozen price snapshot, so later listing edits never
// reinterpret historical orders.
type Listing struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	SellerID          uuid.UUID           `gorm:"column:seller_id;type:uuid;not null"`
	Title             string              `gorm:"column:title;not null"`
	Unit              enums.ListingUnit   `gorm:"column:unit;type:text;not null;default:'kg'"`
	PricePerUnitCents int                 `gorm:"column:price_per_unit_cents;not null"`
	Currency          enums.Currency      `gorm:"column:currency;type:text;not null;default:'USD'"`
	Status            enums.ListingStatus `gorm:"column:status;type:text;not null;default:'active'"`
	Certifications    pq.StringArray      `gorm:"column:certifications;type:text[]"`
	Inventory         *InventoryRecord    `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
