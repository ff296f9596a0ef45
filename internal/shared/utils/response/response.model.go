package response

// StandardApiResponse is the envelope used by the venue, notification, connection and analytics endpoints
type StandardApiResponse struct {
	Status     string      `json:"status"`           // "success" or "error"
	StatusCode int         `json:"status_code"`      // HTTP status code
	Message    string      `json:"message"`          // Human-readable message
	Data       interface{} `json:"data,omitempty"`   // Payload for success
	Errors     interface{} `json:"errors,omitempty"` // Validation or error details
}

// PlainError is the flat body returned by the booking, cancellation and rating endpoints
type PlainError struct {
	Error     string `json:"error"`
	Details   string `json:"details,omitempty"`
	Remaining *int   `json:"remaining,omitempty"` // seats left when capacity was exceeded
}
