package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryRecord tracks per-listing stock counters. Mutated exclusively
// through the inventory ledger's reserve/release/deduct operations, each of
// which is a single guarded UPDATE so concurrent callers can never oversell.
type InventoryRecord struct {
	ListingID      uuid.UUID `gorm:"column:listing_id;type:uuid;primaryKey"`
	AvailableQty   int       `gorm:"column:available_qty;not null;default:0"`
	ReservedQty    int       `gorm:"column:reserved_qty;not null;default:0"`
	SoldQty        int       `gorm:"column:sold_qty;not null;default:0"`
	MinOrderQty    *int      `gorm:"column:min_order_qty"`
	MaxOrderQty    *int      `gorm:"column:max_order_qty"`
	AllowBackorder bool      `gorm:"column:allow_backorder;not null;default:false"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
