package models

import (
	"time"

	"github.com/google/uuid"
)

// Project is one development a chessboard belongs to.
type Project struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}
