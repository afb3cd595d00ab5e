package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/partnerclub/booking-service/internal/constants"
	"github.com/partnerclub/booking-service/internal/dtos"
	"github.com/partnerclub/booking-service/internal/middleware"
	"github.com/partnerclub/booking-service/internal/models"
	"github.com/partnerclub/booking-service/internal/services"
	"github.com/partnerclub/booking-service/internal/storage"
	"github.com/partnerclub/booking-service/internal/utils"
)

type BookingsController struct {
	bookingService *services.BookingService
	documents      storage.DocumentStore
	validate       *validator.Validate
}

func NewBookingsController(bs *services.BookingService, docs storage.DocumentStore) *BookingsController {
	return &BookingsController{
		bookingService: bs,
		documents:      docs,
		validate:       validator.New(),
	}
}

// ----------------------------------------------------------------
// POST /api/bookings
// ----------------------------------------------------------------
func (c *BookingsController) CreateBookingHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	buyerID, ok := requesterID(w, r)
	if !ok {
		return
	}

	var body dtos.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload,
			"Invalid JSON for create-booking payload", nil, err,
		)
		return
	}
	if err := c.validate.Struct(body); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation,
			"unitId and projectId are required", nil, err,
		)
		return
	}

	booking, err := c.bookingService.CreateBooking(ctx, body.UnitID, body.ProjectID, buyerID)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dtos.CreateBookingResponse{
		Success:   true,
		BookingID: booking.ID,
	})
}

// ----------------------------------------------------------------
// POST /api/bookings/{id}/passport  (multipart)
// ----------------------------------------------------------------
func (c *BookingsController) AttachPassportHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	buyerID, ok := requesterID(w, r)
	if !ok {
		return
	}

	bookingID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload,
			"Invalid booking id", nil, err,
		)
		return
	}

	// MaxBytesReader is the actual cap: ParseMultipartForm alone would parse
	// an oversized body to completion, spilling file parts to disk.
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxPassportUploadBytes)
	if err := r.ParseMultipartForm(constants.MaxPassportUploadBytes); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			utils.RespondErrorWithCode(
				w, http.StatusRequestEntityTooLarge, utils.ErrCodeInvalidPayload,
				"Passport upload exceeds the size limit", nil, err,
			)
			return
		}
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload,
			"Invalid multipart form", nil, err,
		)
		return
	}

	form := dtos.AttachPassportForm{
		BuyerName:  r.FormValue("buyer_name"),
		BuyerPhone: r.FormValue("buyer_phone"),
	}
	if err := c.validate.Struct(form); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation,
			"buyer_name and buyer_phone (E.164) are required", nil, err,
		)
		return
	}

	file, header, err := r.FormFile("passport")
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload,
			"passport file part is required", nil, err,
		)
		return
	}
	defer file.Close()

	// Upload first, ledger second. If the ledger call then fails, the
	// uploaded file is an orphan: logged, kept for audit, never retried.
	documentRef, err := c.documents.Save(ctx, bookingID, header.Filename, file)
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadGateway, utils.ErrCodeUpstreamStoreFailure,
			"Failed to store passport document", nil, err,
		)
		return
	}

	_, err = c.bookingService.AttachPassport(ctx, bookingID, buyerID,
		form.BuyerName, form.BuyerPhone, documentRef)
	if err != nil {
		utils.Logger.Warnf("Orphaned document %s after failed attach for booking %s", documentRef, bookingID)
		respondLedgerError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.SuccessResponse{Success: true})
}

// ----------------------------------------------------------------
// POST /api/bookings/cancel
// ----------------------------------------------------------------
func (c *BookingsController) CancelBookingHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestedBy, ok := requesterID(w, r)
	if !ok {
		return
	}

	var body dtos.CancelBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload,
			"Invalid JSON for cancel-booking payload", nil, err,
		)
		return
	}
	if err := c.validate.Struct(body); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation,
			"unitId is required", nil, err,
		)
		return
	}

	if _, err := c.bookingService.CancelBooking(ctx, body.UnitID, requestedBy); err != nil {
		respondLedgerError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.SuccessResponse{Success: true})
}

// ----------------------------------------------------------------
// POST /api/bookings/my
// ----------------------------------------------------------------
func (c *BookingsController) ListMyBookingsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	buyerID, ok := requesterID(w, r)
	if !ok {
		return
	}

	views, err := c.bookingService.ListBookingsForBuyer(ctx, buyerID)
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal,
			"Failed to list your bookings", nil, err,
		)
		return
	}

	out := make([]dtos.BookingViewDTO, 0, len(views))
	for _, v := range views {
		out = append(out, dtos.BookingViewToDTO(v))
	}
	utils.RespondWithJSON(w, http.StatusOK, out)
}

// ----------------------------------------------------------------
// POST /api/bookings/{id}/stage
// ----------------------------------------------------------------
func (c *BookingsController) AdvanceStageHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestedBy, ok := requesterID(w, r)
	if !ok {
		return
	}

	bookingID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload,
			"Invalid booking id", nil, err,
		)
		return
	}

	var body dtos.AdvanceStageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload,
			"Invalid JSON for stage payload", nil, err,
		)
		return
	}
	if body.Stage != models.StageDocsSent && body.Stage != models.StageComplete {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload,
			"stage must be DOCS_SENT or COMPLETE", nil, nil,
		)
		return
	}

	if _, err := c.bookingService.AdvanceStage(ctx, bookingID, requestedBy, body.Stage); err != nil {
		respondLedgerError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.SuccessResponse{Success: true})
}

/* ---------- helpers ---------- */

// requesterID pulls the authenticated partner id out of the request context.
func requesterID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	ctxUserID := r.Context().Value(middleware.ContextKeyUserID)
	if ctxUserID == nil {
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized,
			"No userID in context", nil, nil,
		)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(ctxUserID.(string))
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized,
			"Malformed userID in context", nil, err,
		)
		return uuid.Nil, false
	}
	return id, true
}

func respondLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, utils.ErrUnitNotFound):
		utils.RespondErrorWithCode(w, http.StatusNotFound, utils.ErrCodeUnitNotFound,
			"Unit not found", nil, err)
	case errors.Is(err, utils.ErrBookingNotFound):
		utils.RespondErrorWithCode(w, http.StatusNotFound, utils.ErrCodeBookingNotFound,
			"Booking not found", nil, err)
	case errors.Is(err, utils.ErrUnitNotFree):
		utils.RespondErrorWithCode(w, http.StatusConflict, utils.ErrCodeUnitNotFree,
			"Unit is no longer free", nil, err)
	case errors.Is(err, utils.ErrUnitNoLongerAvailable):
		utils.RespondErrorWithCode(w, http.StatusConflict, utils.ErrCodeUnitNoLongerAvailable,
			"Unit was taken by another booking", nil, err)
	case errors.Is(err, utils.ErrInvalidStage):
		utils.RespondErrorWithCode(w, http.StatusConflict, utils.ErrCodeInvalidStage,
			"Booking is not in a stage that allows this operation", nil, err)
	case errors.Is(err, utils.ErrNotAuthorized):
		utils.RespondErrorWithCode(w, http.StatusForbidden, utils.ErrCodeNotAuthorized,
			"You are not allowed to perform this operation", nil, err)
	case errors.Is(err, utils.ErrUpstreamStoreFailure):
		utils.RespondErrorWithCode(w, http.StatusBadGateway, utils.ErrCodeUpstreamStoreFailure,
			"Upstream store failure", nil, err)
	default:
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal,
			"Internal error", nil, err)
	}
}
