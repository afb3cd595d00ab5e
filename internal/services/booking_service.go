package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/partnerclub/booking-service/internal/events"
	"github.com/partnerclub/booking-service/internal/models"
	"github.com/partnerclub/booking-service/internal/repositories"
	"github.com/partnerclub/booking-service/internal/utils"
)

/*
BookingService is the booking ledger: the single authority over booking
lifecycle and the unit status it arbitrates. All mutations that touch both a
booking and its unit go through the repository's *Atomic methods so the two
rows can never drift apart.
*/
type BookingService struct {
	bookingRepo repositories.BookingRepository
	unitRepo    repositories.UnitRepository
	partnerRepo repositories.PartnerRepository
	publisher   events.Publisher
}

func NewBookingService(
	bookingRepo repositories.BookingRepository,
	unitRepo repositories.UnitRepository,
	partnerRepo repositories.PartnerRepository,
	publisher events.Publisher,
) *BookingService {
	return &BookingService{
		bookingRepo: bookingRepo,
		unitRepo:    unitRepo,
		partnerRepo: partnerRepo,
		publisher:   publisher,
	}
}

// CreateBooking opens an INIT booking for the unit. The unit stays FREE to
// everyone else: the status flip is deferred until the passport step, so an
// abandoned booking never blocks the unit. Two partners may both get past
// this check; attachPassport decides the winner.
func (s *BookingService) CreateBooking(
	ctx context.Context,
	unitID, projectID, buyerID uuid.UUID,
) (*models.Booking, error) {
	unit, err := s.unitRepo.GetByID(ctx, unitID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch unit %s: %w", unitID, err)
	}
	if unit == nil || unit.ProjectID != projectID {
		return nil, utils.ErrUnitNotFound
	}
	if unit.Status != models.UnitStatusFree {
		return nil, utils.ErrUnitNotFree
	}

	active, err := s.bookingRepo.GetActiveByUnitID(ctx, unitID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to check active booking for unit %s: %w", unitID, err)
	}
	if active != nil {
		return nil, utils.ErrUnitNotFree
	}

	booking := &models.Booking{
		ID:        uuid.New(),
		UnitID:    unitID,
		ProjectID: projectID,
		BuyerID:   buyerID,
		Stage:     models.StageInit,
		Active:    true,
	}
	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("service: failed to create booking: %w", err)
	}

	utils.Logger.Infof("Booking %s created for unit %s by partner %s", booking.ID, unitID, buyerID)
	s.publish(ctx, events.TypeBookingCreated, booking)
	return booking, nil
}

// AttachPassport records the buyer details and document reference, advances
// the booking to PASSPORT_SENT and flips the unit to BOOKED, all in one unit
// of work. If the unit was taken in the meantime the booking stays in INIT
// and the caller gets ErrUnitNoLongerAvailable.
func (s *BookingService) AttachPassport(
	ctx context.Context,
	bookingID, requestedBy uuid.UUID,
	buyerName, buyerPhone, documentRef string,
) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch booking %s: %w", bookingID, err)
	}
	if booking == nil {
		return nil, utils.ErrBookingNotFound
	}
	if booking.BuyerID != requestedBy {
		return nil, utils.ErrNotAuthorized
	}
	if !booking.Active || booking.Stage != models.StageInit {
		return nil, utils.ErrInvalidStage
	}

	updated, err := s.bookingRepo.AttachPassportAtomic(ctx, bookingID, buyerName, buyerPhone, documentRef)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, utils.ErrBookingNotFound
		case errors.Is(err, utils.ErrInvalidStage), errors.Is(err, utils.ErrUnitNoLongerAvailable):
			return nil, err
		}
		return nil, fmt.Errorf("service: failed to attach passport to booking %s: %w", bookingID, err)
	}

	utils.Logger.Infof("Booking %s advanced to PASSPORT_SENT, unit %s booked", updated.ID, updated.UnitID)
	s.publish(ctx, events.TypeBookingConfirmed, updated)
	return updated, nil
}

// CancelBooking deactivates the unit's active booking and reverts the unit
// to FREE. Allowed for the booking's owner, or for anyone holding the
// cancel-any-booking capability, at any stage before COMPLETE.
func (s *BookingService) CancelBooking(
	ctx context.Context,
	unitID, requestedBy uuid.UUID,
) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetActiveByUnitID(ctx, unitID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch active booking for unit %s: %w", unitID, err)
	}
	if booking == nil {
		return nil, utils.ErrBookingNotFound
	}

	if booking.BuyerID != requestedBy {
		requester, err := s.partnerRepo.GetByID(ctx, requestedBy)
		if err != nil {
			return nil, fmt.Errorf("service: failed to fetch partner %s: %w", requestedBy, err)
		}
		if requester == nil || !requester.HasCapability(models.CapCancelAnyBooking) {
			return nil, utils.ErrNotAuthorized
		}
	}

	cancelled, err := s.bookingRepo.CancelActiveForUnitAtomic(ctx, unitID)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, utils.ErrBookingNotFound
		case errors.Is(err, utils.ErrInvalidStage):
			return nil, err
		}
		return nil, fmt.Errorf("service: failed to cancel booking for unit %s: %w", unitID, err)
	}

	utils.Logger.Infof("Booking %s cancelled by %s, unit %s released", cancelled.ID, requestedBy, unitID)
	s.publish(ctx, events.TypeBookingCancelled, cancelled)
	return cancelled, nil
}

// ListBookingsForBuyer returns the buyer's active bookings, most recent
// first, flattened into the checklist view.
func (s *BookingService) ListBookingsForBuyer(ctx context.Context, buyerID uuid.UUID) ([]*models.BookingView, error) {
	views, err := s.bookingRepo.ListViewsByBuyerID(ctx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list bookings for buyer %s: %w", buyerID, err)
	}
	return views, nil
}

// AdvanceStage is the hook for the external mortgage-docs flow:
// PASSPORT_SENT → DOCS_SENT → COMPLETE, one step at a time. Requires the
// advance-booking-stage capability.
func (s *BookingService) AdvanceStage(
	ctx context.Context,
	bookingID, requestedBy uuid.UUID,
	to models.BookingStage,
) (*models.Booking, error) {
	requester, err := s.partnerRepo.GetByID(ctx, requestedBy)
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch partner %s: %w", requestedBy, err)
	}
	if requester == nil || !requester.HasCapability(models.CapAdvanceBookingStage) {
		return nil, utils.ErrNotAuthorized
	}
	if to == models.StagePassportSent {
		// passport submission goes through AttachPassport, never through here
		return nil, utils.ErrInvalidStage
	}

	updated, err := s.bookingRepo.AdvanceStageAtomic(ctx, bookingID, to)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, utils.ErrBookingNotFound
		case errors.Is(err, utils.ErrInvalidStage):
			return nil, err
		}
		return nil, fmt.Errorf("service: failed to advance booking %s: %w", bookingID, err)
	}

	utils.Logger.Infof("Booking %s advanced to %s", updated.ID, updated.Stage)
	return updated, nil
}

// ExpireStaleInitBookings is called by the housekeeping cron.
func (s *BookingService) ExpireStaleInitBookings(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	n, err := s.bookingRepo.ExpireStaleInit(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("service: failed to expire stale bookings: %w", err)
	}
	if n > 0 {
		utils.Logger.Infof("Expired %d stale INIT bookings older than %s", n, olderThan)
	}
	return n, nil
}

// publish is best effort: losing an event must never fail a booking.
func (s *BookingService) publish(ctx context.Context, eventType string, b *models.Booking) {
	evt := events.BookingEvent{
		Type:       eventType,
		BookingID:  b.ID,
		UnitID:     b.UnitID,
		ProjectID:  b.ProjectID,
		BuyerID:    b.BuyerID,
		Stage:      string(b.Stage),
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		utils.Logger.WithError(err).Warnf("Failed to publish %s for booking %s", eventType, b.ID)
	}
}
