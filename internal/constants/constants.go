package constants

import "time"

const (
	// Passport uploads are phone camera shots; anything bigger is abuse.
	MaxPassportUploadBytes = 15 << 20

	// INIT bookings never block the unit, but dead ones clutter the
	// partner's checklist. The sweeper cancels them after this long.
	StaleInitBookingTTL = 48 * time.Hour

	// How far back the Telegram init data auth_date may lie.
	InitDataExpiry = 24 * time.Hour

	AccessTokenTTL = 24 * time.Hour
)
