package models

// TelemetryMessage is the device-to-cloud event body.
type TelemetryMessage struct {
	Message string `json:"message"`
}
