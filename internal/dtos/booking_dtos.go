package dtos

import (
	"github.com/google/uuid"
	"github.com/partnerclub/booking-service/internal/models"
)

type CreateBookingRequest struct {
	UnitID    uuid.UUID `json:"unitId" validate:"required"`
	ProjectID uuid.UUID `json:"projectId" validate:"required"`
}

type CreateBookingResponse struct {
	Success   bool      `json:"success"`
	BookingID uuid.UUID `json:"bookingId"`
}

/*
AttachPassportForm carries the multipart fields of
POST /api/bookings/{id}/passport. The file part is named "passport".
*/
type AttachPassportForm struct {
	BuyerName  string `validate:"required,min=2,max=200"`
	BuyerPhone string `validate:"required,e164"`
}

type CancelBookingRequest struct {
	UnitID uuid.UUID `json:"unitId" validate:"required"`
}

type AdvanceStageRequest struct {
	Stage models.BookingStage `json:"stage" validate:"required"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

// BookingViewDTO mirrors the view object the chessboard UI consumes.
type BookingViewDTO struct {
	ID          uuid.UUID `json:"id"`
	UnitNumber  string    `json:"unit_number"`
	UnitFloor   int       `json:"unit_floor"`
	UnitArea    float64   `json:"unit_area"`
	UnitRooms   int       `json:"unit_rooms"`
	UnitPrice   int64     `json:"unit_price"`
	ProjectName string    `json:"project_name"`
	BuyerName   string    `json:"buyer_name"`
	BuyerPhone  string    `json:"buyer_phone"`
	Stage       string    `json:"stage"`
}

func BookingViewToDTO(v *models.BookingView) BookingViewDTO {
	dto := BookingViewDTO{
		ID:          v.ID,
		UnitNumber:  v.UnitNumber,
		UnitFloor:   v.UnitFloor,
		UnitArea:    v.UnitArea,
		UnitRooms:   v.UnitRooms,
		UnitPrice:   v.UnitPrice,
		ProjectName: v.ProjectName,
		Stage:       string(v.Stage),
	}
	if v.BuyerName != nil {
		dto.BuyerName = *v.BuyerName
	}
	if v.BuyerPhone != nil {
		dto.BuyerPhone = *v.BuyerPhone
	}
	return dto
}
