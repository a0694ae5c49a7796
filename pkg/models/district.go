package models

import "time"

// District is one administrative unit from the catalog. DistrictCode is the
// external identifier used by the open-data feed; it is unique in the store
// but arrives from upstream in assorted casings and paddings, so lookups go
// through the matcher's normalized variants rather than raw equality.
type District struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	State        string    `json:"state"`
	DistrictCode string    `json:"district_code"`
	Population   *int64    `json:"population,omitempty"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
