package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/partnerclub/booking-service/internal/dtos"
	"github.com/partnerclub/booking-service/internal/services"
	"github.com/partnerclub/booking-service/internal/utils"
)

type MortgageController struct {
	mortgageService *services.MortgageService
	validate        *validator.Validate
}

func NewMortgageController(ms *services.MortgageService) *MortgageController {
	return &MortgageController{mortgageService: ms, validate: validator.New()}
}

// ----------------------------------------------------------------
// POST /api/mortgage/calc
// ----------------------------------------------------------------
func (c *MortgageController) CalculateHandler(w http.ResponseWriter, r *http.Request) {
	var body dtos.MortgageCalcRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload,
			"Invalid JSON for mortgage payload", nil, err,
		)
		return
	}
	if err := c.validate.Struct(body); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation,
			"Mortgage parameters failed validation", nil, err,
		)
		return
	}

	resp, err := c.mortgageService.Calculate(body)
	if err != nil {
		if errors.Is(err, services.ErrInvalidMortgageInput) {
			utils.RespondErrorWithCode(
				w, http.StatusBadRequest, utils.ErrCodeValidation,
				"Down payment must be below the unit price", nil, err,
			)
			return
		}
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal,
			"Failed to calculate mortgage", nil, err,
		)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, resp)
}
