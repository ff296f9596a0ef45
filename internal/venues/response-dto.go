package venues

import "github.com/google/uuid"

type PaginatedVenues struct {
	Venues     []Venue `json:"venues"`
	Total      int64   `json:"total"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	TotalPages int     `json:"totalPages"`
}

type AvailabilityResponse struct {
	VenueID     uuid.UUID `json:"venueId"`
	Capacity    int       `json:"capacity"`
	BookedCount int       `json:"bookedCount"`
	Remaining   int       `json:"remaining"`
	OpenTime    string    `json:"openTime"`
	CloseTime   string    `json:"closeTime"`
}

type RatingResponse struct {
	VenueID     uuid.UUID `json:"venueId"`
	Rating      float64   `json:"rating"`
	ReviewCount int       `json:"reviewCount"`
}

func toAvailability(v *Venue) *AvailabilityResponse {
	return &AvailabilityResponse{
		VenueID:     v.ID,
		Capacity:    v.Capacity,
		BookedCount: v.BookedCount,
		Remaining:   v.Remaining(),
		OpenTime:    v.OpenTime,
		CloseTime:   v.CloseTime,
	}
}
