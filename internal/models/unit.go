package models

import (
	"time"

	"github.com/google/uuid"
)

type UnitStatus string

const (
	UnitStatusFree   UnitStatus = "FREE"
	UnitStatusBooked UnitStatus = "BOOKED"
	UnitStatusSold   UnitStatus = "SOLD"
)

// Unit is a single sellable apartment/lot on a project's chessboard grid.
// Status is the only field the booking ledger mutates; SOLD is terminal and
// set by the back office, never by this service.
type Unit struct {
	ID             uuid.UUID  `json:"id"`
	ProjectID      uuid.UUID  `json:"project_id"`
	Number         string     `json:"number"`
	Floor          int        `json:"floor"`
	Rooms          int        `json:"rooms"`
	AreaM2         float64    `json:"area_m2"`
	Price          int64      `json:"price"`
	Status         UnitStatus `json:"status"`
	LayoutImageURL *string    `json:"layout_image_url,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
