package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/greentradehq/greentrade-backend/pkg/enums"
)

// OrderItemStatusEvent is one entry in an item's append-only status history.
// Items belonging to different sellers can ship separately, so their trails
// may diverge from the order-level history.
type OrderItemStatusEvent struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	OrderItemID uuid.UUID             `gorm:"column:order_item_id;type:uuid;not null;index"`
	Status      enums.OrderItemStatus `gorm:"column:status;type:text;not null"`
	Note        string                `gorm:"column:note"`
	ActorID     uuid.UUID             `gorm:"column:actor_id;type:uuid"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
}
