package hospital

import (
	"time"

	"github.com/google/uuid"
)

// Hospital maps to the hospitals table. Specialties is stored as a text
// array.
type Hospital struct {
	ID               uuid.UUID `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	Address          *string   `db:"address" json:"address,omitempty"`
	Latitude         *float64  `db:"latitude" json:"latitude,omitempty"`
	Longitude        *float64  `db:"longitude" json:"longitude,omitempty"`
	Specialties      []string  `db:"specialties" json:"specialties"`
	BedCapacity      int       `db:"bed_capacity" json:"bed_capacity"`
	CurrentOccupancy int       `db:"current_occupancy" json:"current_occupancy"`
	IsActive         bool      `db:"is_active" json:"is_active"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// AvailableBeds returns the number of unoccupied beds.
func (h *Hospital) AvailableBeds() int {
	free := h.BedCapacity - h.CurrentOccupancy
	if free < 0 {
		return 0
	}
	return free
}
