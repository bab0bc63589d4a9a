package constants

import "time"

// Well-known local endpoints of the aziot daemons.
const (
	IdentityServiceSocket = "/run/aziot/identityd.sock"
	KeyServiceSocket      = "/run/aziot/keyd.sock"

	// Host names used in the HTTP requests sent over the unix sockets.
	IdentityServiceHost = "identityd.sock"
	KeyServiceHost      = "keyd.sock"

	// AziotAPIVersion is the API version targeted on both local services.
	AziotAPIVersion = "2020-09-01"
)

// Identity types returned by the identity service.
const (
	IdentityTypeAziot = "aziot"
	IdentityTypeLocal = "local"

	AuthTypeSas  = "sas"
	AuthTypeX509 = "x509"
)

// SasTokenValidity is the fixed lifetime of a derived SAS token.
const SasTokenValidity = 50000 * time.Second

// IoT Hub MQTT endpoint.
const (
	BrokerScheme = "ssl"
	BrokerPort   = 8883

	// MQTTProtocolVersion selects MQTT 3.1.1.
	MQTTProtocolVersion = 4

	HubAPIVersion = "2021-04-12"

	// TelemetryQOS is at-least-once delivery.
	TelemetryQOS = 1

	// TelemetryTopicFormat takes the device id and the module id.
	TelemetryTopicFormat = "devices/%s/modules/%s/messages/events/$.ct=application%%2Fjson%%3Bcharset%%3Dutf-8"
)
