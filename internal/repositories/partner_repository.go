package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/partnerclub/booking-service/internal/models"
)

type PartnerRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Partner, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*models.Partner, error)

	// Upsert inserts the partner or refreshes the Telegram profile fields on
	// conflict. Capabilities are never touched by the upsert; they are
	// granted out of band.
	Upsert(ctx context.Context, p *models.Partner) (*models.Partner, error)

	GrantCapability(ctx context.Context, id uuid.UUID, capability string) error
}

type partnerRepo struct {
	db DB
}

func NewPartnerRepository(db DB) PartnerRepository {
	return &partnerRepo{db: db}
}

func baseSelectPartner() string {
	return `
		SELECT id, telegram_id, first_name, last_name, username,
		capabilities, created_at, updated_at
		FROM partners`
}

func scanPartner(row pgx.Row) (*models.Partner, error) {
	var p models.Partner
	if err := row.Scan(
		&p.ID, &p.TelegramID, &p.FirstName, &p.LastName, &p.Username,
		&p.Capabilities, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *partnerRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Partner, error) {
	row := r.db.QueryRow(ctx, baseSelectPartner()+" WHERE id=$1", id)
	return scanPartner(row)
}

func (r *partnerRepo) GetByTelegramID(ctx context.Context, telegramID int64) (*models.Partner, error) {
	row := r.db.QueryRow(ctx, baseSelectPartner()+" WHERE telegram_id=$1", telegramID)
	return scanPartner(row)
}

func (r *partnerRepo) Upsert(ctx context.Context, p *models.Partner) (*models.Partner, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO partners (
			id, telegram_id, first_name, last_name, username,
			capabilities, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,'{}', NOW(), NOW())
		ON CONFLICT (telegram_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name  = EXCLUDED.last_name,
			username   = EXCLUDED.username,
			updated_at = NOW()
		RETURNING id, telegram_id, first_name, last_name, username,
		          capabilities, created_at, updated_at
	`, p.ID, p.TelegramID, p.FirstName, p.LastName, p.Username)
	return scanPartner(row)
}

func (r *partnerRepo) GrantCapability(ctx context.Context, id uuid.UUID, capability string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE partners
		SET capabilities = array_append(capabilities, $1), updated_at = NOW()
		WHERE id=$2 AND NOT ($1 = ANY(capabilities))
	`, capability, id)
	return err
}
