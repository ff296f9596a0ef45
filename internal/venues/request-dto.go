package venues

type TableInput struct {
	Number     int      `json:"number" binding:"required,min=1"`
	Seats      int      `json:"seats" binding:"required,min=1"`
	Attributes []string `json:"attributes"`
}

type CreateVenueRequest struct {
	Name      string       `json:"name" binding:"required,min=2,max=200"`
	Kind      Kind         `json:"kind" binding:"required,oneof=RESTAURANT COWORKING"`
	Address   string       `json:"address" binding:"max=500"`
	Capacity  int          `json:"capacity" binding:"required,min=1"`
	OpenTime  string       `json:"openTime" binding:"required,hhmm"`
	CloseTime string       `json:"closeTime" binding:"required,hhmm"`
	Tables    []TableInput `json:"tables" binding:"omitempty,dive"`
}

// VenueUpdate lists the fields an admin may change. Nil fields are left alone;
// the counter, rating and version are never writable here.
type VenueUpdate struct {
	Name      *string       `json:"name" binding:"omitempty,min=2,max=200"`
	Address   *string       `json:"address" binding:"omitempty,max=500"`
	Capacity  *int          `json:"capacity" binding:"omitempty,min=1"`
	OpenTime  *string       `json:"openTime" binding:"omitempty,hhmm"`
	CloseTime *string       `json:"closeTime" binding:"omitempty,hhmm"`
	Tables    *[]TableInput `json:"tables" binding:"omitempty,dive"`
}

func (u VenueUpdate) IsEmpty() bool {
	return u.Name == nil && u.Address == nil && u.Capacity == nil &&
		u.OpenTime == nil && u.CloseTime == nil && u.Tables == nil
}

type VenueFilters struct {
	Kind   Kind   `form:"kind" binding:"omitempty,oneof=RESTAURANT COWORKING"`
	Search string `form:"q" binding:"max=100"`
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

func (f *VenueFilters) normalize() {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}
}

type SubmitRatingRequest struct {
	VenueID string  `json:"venueId" binding:"required,uuid"`
	Rating  float64 `json:"rating"`
}
