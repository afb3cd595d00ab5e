package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/partnerclub/booking-service/internal/dtos"
	"github.com/partnerclub/booking-service/internal/repositories"
	"github.com/partnerclub/booking-service/internal/utils"
)

type UnitsController struct {
	unitRepo    repositories.UnitRepository
	projectRepo repositories.ProjectRepository
}

func NewUnitsController(unitRepo repositories.UnitRepository, projectRepo repositories.ProjectRepository) *UnitsController {
	return &UnitsController{unitRepo: unitRepo, projectRepo: projectRepo}
}

// ----------------------------------------------------------------
// GET /api/units/{projectId}   (public read for the chessboard grid)
// ----------------------------------------------------------------
func (c *UnitsController) ListUnitsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	projectID, err := uuid.Parse(mux.Vars(r)["projectId"])
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload,
			"Invalid project id", nil, err,
		)
		return
	}

	project, err := c.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal,
			"Failed to fetch project", nil, err,
		)
		return
	}
	if project == nil {
		utils.RespondErrorWithCode(
			w, http.StatusNotFound, utils.ErrCodeNotFound,
			"Project not found", nil, nil,
		)
		return
	}

	units, err := c.unitRepo.ListByProjectID(ctx, projectID)
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal,
			"Failed to list units", nil, err,
		)
		return
	}

	out := make([]dtos.UnitDTO, 0, len(units))
	for _, u := range units {
		out = append(out, dtos.UnitToDTO(u))
	}
	utils.RespondWithJSON(w, http.StatusOK, out)
}
