package types

import (
	"time"

	"github.com/google/uuid"
)

// Cancellation is populated once, when an order is cancelled.
type Cancellation struct {
	Reason      string    `json:"reason"`
	CancelledBy uuid.UUID `json:"cancelled_by"`
	CancelledAt time.Time `json:"cancelled_at"`
}

// ReturnRequest is populated when a buyer opens a return. Review happens in
// an administrative flow; only the request itself lives here.
type ReturnRequest struct {
	Reason         string    `json:"reason"`
	EvidenceImages []string  `json:"evidence_images,omitempty"`
	RequestedBy    uuid.UUID `json:"requested_by"`
	RequestedAt    time.Time `json:"requested_at"`
	Status         string    `json:"status"`
}
