package routes

const (
	// Health
	Health = "/health"

	// Public
	AuthTelegram   = "/api/auth/telegram"
	UnitsByProject = "/api/units/{projectId}"
	MortgageCalc   = "/api/mortgage/calc"

	// Booking endpoints (partner token)
	BookingsCreate   = "/api/bookings"
	BookingsPassport = "/api/bookings/{id}/passport"
	BookingsCancel   = "/api/bookings/cancel"
	BookingsMy       = "/api/bookings/my"

	// External mortgage-docs flow (capability-guarded)
	BookingsStage = "/api/bookings/{id}/stage"
)
