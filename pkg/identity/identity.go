package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/benmeehan/aziot-sas-agent/internal/constants"
	"github.com/benmeehan/aziot-sas-agent/internal/errkind"
	"github.com/benmeehan/aziot-sas-agent/internal/models"
	http_utils "github.com/benmeehan/aziot-sas-agent/pkg/httpUtils"
	"github.com/benmeehan/aziot-sas-agent/pkg/keys"
)

// DeviceIdentity is the module identity provisioned on this device.
type DeviceIdentity struct {
	HubName      string
	GatewayHost  string
	DeviceID     string
	ModuleID     string
	GenerationID string
	AuthType     string
	KeyHandle    keys.KeyHandle
}

// ClientID is the MQTT client identifier of the module.
func (d DeviceIdentity) ClientID() string {
	return d.DeviceID + "/" + d.ModuleID
}

// Identity is what the identity service reports for the caller.
// It is either a ManagedIdentity or a LocalIdentity.
type Identity interface {
	isIdentity()
}

// ManagedIdentity is an identity registered in IoT Hub.
type ManagedIdentity struct {
	Device DeviceIdentity
}

// LocalIdentity is an identity only known to the device.
type LocalIdentity struct {
	ModuleID string
}

func (ManagedIdentity) isIdentity() {}
func (LocalIdentity) isIdentity()   {}

// ResolverInterface resolves the identity of the calling process.
type ResolverInterface interface {
	Resolve(ctx context.Context) (*DeviceIdentity, error)
}

// Resolver queries the aziot identity service for the caller identity.
type Resolver struct {
	client     *http_utils.UnixSocketClient
	apiVersion string
	logger     zerolog.Logger
}

// NewResolver creates a Resolver for the identity service listening on socketPath.
func NewResolver(socketPath string, logger zerolog.Logger) *Resolver {
	return &Resolver{
		client:     http_utils.NewUnixSocketClient(socketPath, constants.IdentityServiceHost),
		apiVersion: constants.AziotAPIVersion,
		logger:     logger,
	}
}

// Resolve fetches the caller identity and returns it if it is a usable SAS module identity.
// A local identity, a missing module id or a missing key handle are configuration errors.
func (r *Resolver) Resolve(ctx context.Context) (*DeviceIdentity, error) {
	r.logger.Info().Str("socket", r.client.SocketPath()).Msg("Obtaining Edge device provisioning data")

	identity, err := r.GetCallerIdentity(ctx)
	if err != nil {
		return nil, err
	}

	switch id := identity.(type) {
	case ManagedIdentity:
		if err := validate(id.Device); err != nil {
			return nil, err
		}
		r.logger.Info().
			Str("hub_name", id.Device.HubName).
			Str("gateway_host", id.Device.GatewayHost).
			Str("device_id", id.Device.DeviceID).
			Str("module_id", id.Device.ModuleID).
			Str("generation_id", id.Device.GenerationID).
			Msg("Device identity resolved")
		device := id.Device
		return &device, nil
	case LocalIdentity:
		r.logger.Error().Str("module_id", id.ModuleID).Msg("Identity service returned a local identity")
		return nil, errkind.Configuration("invalid device identity")
	default:
		return nil, errkind.Protocol("unexpected identity", fmt.Errorf("%T", identity))
	}
}

// GetCallerIdentity performs the raw identity query and decodes the tagged response.
func (r *Resolver) GetCallerIdentity(ctx context.Context) (Identity, error) {
	var response models.IdentityResponse
	err := r.client.DoJSON(ctx, http.MethodGet, "/identities/identity", url.Values{"api-version": {r.apiVersion}}, nil, &response)
	if err != nil {
		if errors.Is(err, http_utils.ErrMalformedResponse) {
			return nil, errkind.Protocol("failed to decode device identity", err)
		}
		return nil, errkind.Dependency("failed to obtain device identity", err)
	}
	return decodeIdentity(response)
}

func decodeIdentity(response models.IdentityResponse) (Identity, error) {
	if len(response.Spec) == 0 || string(response.Spec) == "null" {
		return nil, errkind.Protocol("failed to decode device identity", errors.New("identity spec is missing"))
	}

	switch response.Type {
	case constants.IdentityTypeAziot:
		var spec models.AziotIdentitySpec
		if err := json.Unmarshal(response.Spec, &spec); err != nil {
			return nil, errkind.Protocol("failed to decode device identity", err)
		}
		device := DeviceIdentity{
			HubName:      spec.HubName,
			GatewayHost:  spec.GatewayHost,
			DeviceID:     spec.DeviceID,
			ModuleID:     spec.ModuleID,
			GenerationID: spec.GenID,
		}
		if spec.Auth != nil {
			device.AuthType = spec.Auth.Type
			device.KeyHandle = keys.NewKeyHandle(spec.Auth.KeyHandle)
		}
		return ManagedIdentity{Device: device}, nil
	case constants.IdentityTypeLocal:
		var spec models.LocalIdentitySpec
		if err := json.Unmarshal(response.Spec, &spec); err != nil {
			return nil, errkind.Protocol("failed to decode device identity", err)
		}
		return LocalIdentity{ModuleID: spec.ModuleID}, nil
	default:
		return nil, errkind.Protocol("failed to decode device identity", fmt.Errorf("unknown identity type %q", response.Type))
	}
}

func validate(device DeviceIdentity) error {
	switch {
	case device.HubName == "" || device.DeviceID == "":
		return errkind.Protocol("failed to decode device identity", errors.New("hub name or device id is missing"))
	case device.ModuleID == "":
		return errkind.Configuration("device identity has no module id")
	case device.AuthType != constants.AuthTypeSas:
		return errkind.Configuration(fmt.Sprintf("unsupported authentication type %q, expected %q", device.AuthType, constants.AuthTypeSas))
	case device.KeyHandle.IsZero():
		return errkind.Configuration("device identity has no key handle")
	}
	return nil
}
