package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/partnerclub/booking-service/internal/models"
	"github.com/partnerclub/booking-service/internal/utils"
)

/* ───────────── public interface ───────────── */

type BookingRepository interface {
	Create(ctx context.Context, b *models.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	GetActiveByUnitID(ctx context.Context, unitID uuid.UUID) (*models.Booking, error)
	ListViewsByBuyerID(ctx context.Context, buyerID uuid.UUID) ([]*models.BookingView, error)

	// AttachPassportAtomic records the buyer fields, advances the stage to
	// PASSPORT_SENT and flips the unit FREE → BOOKED in one transaction.
	// The unit flip is conditional on status='FREE'; zero rows there means
	// another booking won the race and the whole transaction rolls back.
	AttachPassportAtomic(ctx context.Context, bookingID uuid.UUID, buyerName, buyerPhone, documentRef string) (*models.Booking, error)

	// CancelActiveForUnitAtomic deactivates the unit's active booking and
	// reverts the unit to FREE in one transaction. The revert is conditional
	// on status='BOOKED': an INIT-stage booking never flipped the unit, so
	// zero rows there is not an error.
	CancelActiveForUnitAtomic(ctx context.Context, unitID uuid.UUID) (*models.Booking, error)

	// AdvanceStageAtomic moves an active booking one step forward in the
	// document workflow. Transitions are strictly single-step and monotonic.
	AdvanceStageAtomic(ctx context.Context, bookingID uuid.UUID, to models.BookingStage) (*models.Booking, error)

	// ExpireStaleInit deactivates INIT bookings created before the cutoff.
	// They never blocked their unit, so no unit status changes.
	ExpireStaleInit(ctx context.Context, cutoff time.Time) (int64, error)
}

/* ───────────── implementation ───────────── */

type bookingRepo struct {
	db DB
}

func NewBookingRepository(db DB) BookingRepository {
	return &bookingRepo{db: db}
}

func baseSelectBooking() string {
	return `
		SELECT id, unit_id, project_id, buyer_id, buyer_name, buyer_phone,
		passport_document_ref, stage, active, cancelled_at,
		created_at, updated_at
		FROM bookings`
}

func scanBooking(row pgx.Row) (*models.Booking, error) {
	var b models.Booking
	if err := row.Scan(
		&b.ID, &b.UnitID, &b.ProjectID, &b.BuyerID,
		&b.BuyerName, &b.BuyerPhone, &b.PassportDocumentRef,
		&b.Stage, &b.Active, &b.CancelledAt,
		&b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

/* ---------- create / reads ---------- */

func (r *bookingRepo) Create(ctx context.Context, b *models.Booking) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO bookings (
			id, unit_id, project_id, buyer_id, stage, active,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5, TRUE, NOW(), NOW())
	`, b.ID, b.UnitID, b.ProjectID, b.BuyerID, b.Stage)
	return err
}

func (r *bookingRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	row := r.db.QueryRow(ctx, baseSelectBooking()+" WHERE id=$1", id)
	return scanBooking(row)
}

func (r *bookingRepo) GetActiveByUnitID(ctx context.Context, unitID uuid.UUID) (*models.Booking, error) {
	row := r.db.QueryRow(ctx,
		baseSelectBooking()+" WHERE unit_id=$1 AND active ORDER BY created_at DESC LIMIT 1",
		unitID)
	return scanBooking(row)
}

func (r *bookingRepo) ListViewsByBuyerID(ctx context.Context, buyerID uuid.UUID) ([]*models.BookingView, error) {
	rows, err := r.db.Query(ctx, `
		SELECT b.id, u.number, u.floor, u.area_m2, u.rooms, u.price,
		       p.name, b.buyer_name, b.buyer_phone, b.stage
		FROM bookings b
		JOIN units u ON u.id = b.unit_id
		JOIN projects p ON p.id = b.project_id
		WHERE b.buyer_id = $1 AND b.active
		ORDER BY b.created_at DESC
	`, buyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*models.BookingView, 0)
	for rows.Next() {
		var v models.BookingView
		if err := rows.Scan(
			&v.ID, &v.UnitNumber, &v.UnitFloor, &v.UnitArea, &v.UnitRooms,
			&v.UnitPrice, &v.ProjectName, &v.BuyerName, &v.BuyerPhone, &v.Stage,
		); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, rows.Err()
}

/* ---------- atomic transitions ---------- */

func (r *bookingRepo) AttachPassportAtomic(
	ctx context.Context,
	bookingID uuid.UUID,
	buyerName, buyerPhone, documentRef string,
) (b *models.Booking, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	row := tx.QueryRow(ctx, baseSelectBooking()+" WHERE id=$1 FOR UPDATE", bookingID)
	b, err = scanBooking(row)
	if err != nil {
		return nil, err
	}
	if b == nil {
		err = pgx.ErrNoRows
		return nil, err
	}
	if !b.Active || b.Stage != models.StageInit {
		err = utils.ErrInvalidStage
		return b, err
	}

	// The unit's status column is the arbitration point between racing
	// bookings: only one FREE → BOOKED flip can succeed.
	tag, execErr := tx.Exec(ctx, `
		UPDATE units SET status='BOOKED', updated_at=NOW()
		WHERE id=$1 AND status='FREE'
	`, b.UnitID)
	if execErr != nil {
		err = execErr
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		err = utils.ErrUnitNoLongerAvailable
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE bookings
		SET buyer_name=$1, buyer_phone=$2, passport_document_ref=$3,
		    stage='PASSPORT_SENT', updated_at=NOW()
		WHERE id=$4
	`, buyerName, buyerPhone, documentRef, bookingID)
	if err != nil {
		return nil, err
	}

	newRow := tx.QueryRow(ctx, baseSelectBooking()+" WHERE id=$1", bookingID)
	return scanBooking(newRow)
}

func (r *bookingRepo) CancelActiveForUnitAtomic(
	ctx context.Context,
	unitID uuid.UUID,
) (b *models.Booking, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	row := tx.QueryRow(ctx,
		baseSelectBooking()+" WHERE unit_id=$1 AND active ORDER BY created_at DESC LIMIT 1 FOR UPDATE",
		unitID)
	b, err = scanBooking(row)
	if err != nil {
		return nil, err
	}
	if b == nil {
		err = pgx.ErrNoRows
		return nil, err
	}
	if b.Stage == models.StageComplete {
		err = utils.ErrInvalidStage
		return b, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE bookings SET active=FALSE, cancelled_at=NOW(), updated_at=NOW()
		WHERE id=$1
	`, b.ID)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE units SET status='FREE', updated_at=NOW()
		WHERE id=$1 AND status='BOOKED'
	`, unitID)
	if err != nil {
		return nil, err
	}

	newRow := tx.QueryRow(ctx, baseSelectBooking()+" WHERE id=$1", b.ID)
	return scanBooking(newRow)
}

func (r *bookingRepo) AdvanceStageAtomic(
	ctx context.Context,
	bookingID uuid.UUID,
	to models.BookingStage,
) (b *models.Booking, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	row := tx.QueryRow(ctx, baseSelectBooking()+" WHERE id=$1 FOR UPDATE", bookingID)
	b, err = scanBooking(row)
	if err != nil {
		return nil, err
	}
	if b == nil {
		err = pgx.ErrNoRows
		return nil, err
	}
	next, ok := b.Stage.Next()
	if !b.Active || !ok || next != to {
		err = utils.ErrInvalidStage
		return b, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE bookings SET stage=$1, updated_at=NOW() WHERE id=$2
	`, to, bookingID)
	if err != nil {
		return nil, err
	}

	newRow := tx.QueryRow(ctx, baseSelectBooking()+" WHERE id=$1", bookingID)
	return scanBooking(newRow)
}

func (r *bookingRepo) ExpireStaleInit(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE bookings SET active=FALSE, cancelled_at=NOW(), updated_at=NOW()
		WHERE active AND stage='INIT' AND created_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
