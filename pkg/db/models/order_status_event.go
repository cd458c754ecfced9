package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/greentradehq/greentrade-backend/pkg/enums"
)

// OrderStatusEvent is one entry in an order's append-only status history.
type OrderStatusEvent struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	Status    enums.OrderStatus `gorm:"column:status;type:text;not null"`
	Note      string            `gorm:"column:note"`
	ActorID   uuid.UUID         `gorm:"column:actor_id;type:uuid"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}
