package models

import (
	"time"

	"github.com/google/uuid"
)

type BookingStage string

const (
	StageInit         BookingStage = "INIT"
	StagePassportSent BookingStage = "PASSPORT_SENT"
	StageDocsSent     BookingStage = "DOCS_SENT"
	StageComplete     BookingStage = "COMPLETE"
)

// Next returns the stage that follows s in the document-collection workflow.
// ok is false for COMPLETE (terminal) and unknown stages.
func (s BookingStage) Next() (BookingStage, bool) {
	switch s {
	case StageInit:
		return StagePassportSent, true
	case StagePassportSent:
		return StageDocsSent, true
	case StageDocsSent:
		return StageComplete, true
	default:
		return "", false
	}
}

// Booking is a partner's reservation claim against one unit. Cancellation is
// not a stage: a cancelled booking keeps its last stage but flips Active off
// and records CancelledAt.
type Booking struct {
	ID                  uuid.UUID    `json:"id"`
	UnitID              uuid.UUID    `json:"unit_id"`
	ProjectID           uuid.UUID    `json:"project_id"`
	BuyerID             uuid.UUID    `json:"buyer_id"`
	BuyerName           *string      `json:"buyer_name,omitempty"`
	BuyerPhone          *string      `json:"buyer_phone,omitempty"`
	PassportDocumentRef *string      `json:"passport_document_ref,omitempty"`
	Stage               BookingStage `json:"stage"`
	Active              bool         `json:"active"`
	CancelledAt         *time.Time   `json:"cancelled_at,omitempty"`
	CreatedAt           time.Time    `json:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at"`
}

// BookingView is the flattened row shown in the partner's own checklist
// (booking joined with its unit and project).
type BookingView struct {
	ID          uuid.UUID    `json:"id"`
	UnitNumber  string       `json:"unit_number"`
	UnitFloor   int          `json:"unit_floor"`
	UnitArea    float64      `json:"unit_area"`
	UnitRooms   int          `json:"unit_rooms"`
	UnitPrice   int64        `json:"unit_price"`
	ProjectName string       `json:"project_name"`
	BuyerName   *string      `json:"buyer_name"`
	BuyerPhone  *string      `json:"buyer_phone"`
	Stage       BookingStage `json:"stage"`
}
