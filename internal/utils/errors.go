package utils

import "errors"

/*
   Sentinel errors for the booking ledger. Controllers map these to
   HTTP statuses with errors.Is.
*/
var (
	ErrUnitNotFound          = errors.New("unit_not_found")
	ErrUnitNotFree           = errors.New("unit_not_free")
	ErrUnitNoLongerAvailable = errors.New("unit_no_longer_available")
	ErrBookingNotFound       = errors.New("booking_not_found")
	ErrInvalidStage          = errors.New("invalid_stage")
	ErrNotAuthorized         = errors.New("not_authorized")
	ErrUpstreamStoreFailure  = errors.New("upstream_store_failure")

	// Auth exchange
	ErrInvalidInitData = errors.New("invalid_init_data")
)
