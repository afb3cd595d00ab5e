package controllers

import (
	"net/http"

	"github.com/partnerclub/booking-service/internal/utils"
)

func HealthHandler(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
