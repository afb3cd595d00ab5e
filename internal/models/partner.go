package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Capabilities a partner may hold beyond the default booking rights.
const (
	CapCancelAnyBooking    = "cancel-any-booking"
	CapAdvanceBookingStage = "advance-booking-stage"
)

// Partner is a Telegram-identified sales partner. Identity comes from the
// signed init data; the row is upserted on every auth exchange.
type Partner struct {
	ID           uuid.UUID `json:"id"`
	TelegramID   int64     `json:"telegram_id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Username     string    `json:"username"`
	Capabilities []string  `json:"capabilities"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (p *Partner) HasCapability(cap string) bool {
	return slices.Contains(p.Capabilities, cap)
}
