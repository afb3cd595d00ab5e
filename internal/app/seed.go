package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/partnerclub/booking-service/internal/models"
	"github.com/partnerclub/booking-service/internal/repositories"
	"github.com/partnerclub/booking-service/internal/utils"
)

// Helper to check for unique violation error (PostgreSQL specific code)
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

/* ------------------------------------------------------------------
   Seed a demo project with a small chessboard (dev/demo purposes only)
------------------------------------------------------------------ */
func SeedDemoProject(projectRepo repositories.ProjectRepository, unitRepo repositories.UnitRepository) error {
	ctx := context.Background()
	demoProjectID := uuid.MustParse("7b1e4f10-0000-4000-8000-000000000001")

	existing, err := projectRepo.GetByID(ctx, demoProjectID)
	if err != nil {
		return fmt.Errorf("check demo project: %w", err)
	}
	if existing != nil {
		utils.Logger.Infof("Demo project already present (id=%s); skipping.", demoProjectID)
		return nil
	}

	project := &models.Project{
		ID:      demoProjectID,
		Name:    "Riverside Towers",
		Address: "12 Embankment Ave",
	}
	if err := projectRepo.Create(ctx, project); err != nil {
		if isUniqueViolation(err) {
			utils.Logger.Infof("Demo project already present (id=%s); skipping.", demoProjectID)
			return nil
		}
		return fmt.Errorf("create demo project: %w", err)
	}

	// 5 floors x 4 units per floor.
	units := make([]models.Unit, 0, 20)
	for floor := 1; floor <= 5; floor++ {
		for pos := 1; pos <= 4; pos++ {
			units = append(units, models.Unit{
				ID:        uuid.New(),
				ProjectID: demoProjectID,
				Number:    fmt.Sprintf("%d%02d", floor, pos),
				Floor:     floor,
				Rooms:     pos,
				AreaM2:    28.5 + float64(pos)*14.0,
				Price:     4_200_000 + int64(pos)*1_350_000 + int64(floor)*50_000,
				Status:    models.UnitStatusFree,
			})
		}
	}
	if err := unitRepo.CreateMany(ctx, units); err != nil {
		return fmt.Errorf("create demo units: %w", err)
	}

	utils.Logger.Infof("Seeded demo project %s with %d units.", demoProjectID, len(units))
	return nil
}

/* ------------------------------------------------------------------
   Seed a back-office partner that can cancel and advance any booking
------------------------------------------------------------------ */
func SeedBackOfficePartner(partnerRepo repositories.PartnerRepository) error {
	ctx := context.Background()
	const backOfficeTelegramID int64 = 100000001

	existing, err := partnerRepo.GetByTelegramID(ctx, backOfficeTelegramID)
	if err != nil {
		return fmt.Errorf("check back-office partner: %w", err)
	}
	if existing == nil {
		existing, err = partnerRepo.Upsert(ctx, &models.Partner{
			ID:         uuid.New(),
			TelegramID: backOfficeTelegramID,
			FirstName:  "Back",
			LastName:   "Office",
			Username:   "partnerclub_backoffice",
		})
		if err != nil {
			return fmt.Errorf("create back-office partner: %w", err)
		}
		utils.Logger.Infof("Seeded back-office partner (id=%s).", existing.ID)
	}

	for _, cap := range []string{models.CapCancelAnyBooking, models.CapAdvanceBookingStage} {
		if existing.HasCapability(cap) {
			continue
		}
		if err := partnerRepo.GrantCapability(ctx, existing.ID, cap); err != nil {
			return fmt.Errorf("grant %s to back-office partner: %w", cap, err)
		}
	}
	return nil
}

/* ------------------------------------------------------------------
   SeedDevData – convenience called from main() when SEED_DEV_DATA=true.
------------------------------------------------------------------ */
func SeedDevData(
	projectRepo repositories.ProjectRepository,
	unitRepo repositories.UnitRepository,
	partnerRepo repositories.PartnerRepository,
) error {
	if err := SeedDemoProject(projectRepo, unitRepo); err != nil {
		return fmt.Errorf("seed demo project: %w", err)
	}
	if err := SeedBackOfficePartner(partnerRepo); err != nil {
		return fmt.Errorf("seed back-office partner: %w", err)
	}
	return nil
}
