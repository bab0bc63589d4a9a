package models

// ErrorResponse is the body the aziot services send with a non-2xx status.
type ErrorResponse struct {
	Message string `json:"message"`
}
