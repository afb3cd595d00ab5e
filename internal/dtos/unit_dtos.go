package dtos

import (
	"github.com/google/uuid"
	"github.com/partnerclub/booking-service/internal/models"
)

// UnitDTO is the public chessboard cell. Booking internals are not exposed
// here; the grid only needs the status color.
type UnitDTO struct {
	ID             uuid.UUID `json:"id"`
	ProjectID      uuid.UUID `json:"project_id"`
	Number         string    `json:"number"`
	Floor          int       `json:"floor"`
	Rooms          int       `json:"rooms"`
	AreaM2         float64   `json:"area_m2"`
	Price          int64     `json:"price"`
	Status         string    `json:"status"`
	LayoutImageURL string    `json:"layout_image_url,omitempty"`
}

func UnitToDTO(u *models.Unit) UnitDTO {
	dto := UnitDTO{
		ID:        u.ID,
		ProjectID: u.ProjectID,
		Number:    u.Number,
		Floor:     u.Floor,
		Rooms:     u.Rooms,
		AreaM2:    u.AreaM2,
		Price:     u.Price,
		Status:    string(u.Status),
	}
	if u.LayoutImageURL != nil {
		dto.LayoutImageURL = *u.LayoutImageURL
	}
	return dto
}
