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

type AuthController struct {
	authService *services.AuthService
	validate    *validator.Validate
}

func NewAuthController(as *services.AuthService) *AuthController {
	return &AuthController{authService: as, validate: validator.New()}
}

// ----------------------------------------------------------------
// POST /api/auth/telegram
// ----------------------------------------------------------------
func (c *AuthController) TelegramAuthHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body dtos.TelegramAuthRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload,
			"Invalid JSON for auth payload", nil, err,
		)
		return
	}
	if err := c.validate.Struct(body); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation,
			"initData is required", nil, err,
		)
		return
	}

	token, partner, err := c.authService.Exchange(ctx, body.InitData)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidInitData) {
			utils.RespondErrorWithCode(
				w, http.StatusUnauthorized, utils.ErrCodeInvalidInitData,
				"Telegram init data failed validation", nil, err,
			)
			return
		}
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal,
			"Failed to authenticate", nil, err,
		)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.TelegramAuthResponse{
		Success:     true,
		AccessToken: token,
		PartnerID:   partner.ID.String(),
	})
}
