package models

import "github.com/goccy/go-json"

// IdentityResponse is the tagged union returned by the identity service.
// Spec is decoded according to Type.
type IdentityResponse struct {
	Type string          `json:"type"`
	Spec json.RawMessage `json:"spec"`
}

// AziotIdentitySpec describes an identity managed by IoT Hub.
type AziotIdentitySpec struct {
	HubName     string              `json:"hubName"`
	GatewayHost string              `json:"gatewayHost,omitempty"`
	DeviceID    string              `json:"deviceId"`
	ModuleID    string              `json:"moduleId,omitempty"`
	GenID       string              `json:"genId,omitempty"`
	Auth        *AuthenticationInfo `json:"auth,omitempty"`
}

// LocalIdentitySpec describes an identity unknown to IoT Hub.
type LocalIdentitySpec struct {
	ModuleID string `json:"moduleId"`
}

// AuthenticationInfo references the credential of an identity held by the key service.
type AuthenticationInfo struct {
	Type      string `json:"type"`
	KeyHandle string `json:"keyHandle,omitempty"`
	CertID    string `json:"certId,omitempty"`
}
