package models

// SignRequest is sent to the key service to sign a message with a stored key.
type SignRequest struct {
	KeyHandle  string         `json:"keyHandle"`
	Algorithm  string         `json:"algorithm"`
	Parameters SignParameters `json:"parameters"`
}

// SignParameters carries the base64 encoded message to sign.
type SignParameters struct {
	Message string `json:"message"`
}

// SignResponse holds the base64 encoded signature.
type SignResponse struct {
	Signature string `json:"signature"`
}
