package keys

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/benmeehan/aziot-sas-agent/internal/constants"
	"github.com/benmeehan/aziot-sas-agent/internal/errkind"
	"github.com/benmeehan/aziot-sas-agent/internal/models"
	http_utils "github.com/benmeehan/aziot-sas-agent/pkg/httpUtils"
)

// Mechanism names a signing algorithm supported by the key service.
type Mechanism string

// HMACSHA256 signs with the symmetric key behind the handle.
const HMACSHA256 Mechanism = "HMAC-SHA256"

// KeyServiceInterface signs data with a key that never leaves the key service.
type KeyServiceInterface interface {
	Sign(ctx context.Context, handle KeyHandle, mechanism Mechanism, data []byte) ([]byte, error)
}

// KeyService is the client of the aziot key service.
type KeyService struct {
	client     *http_utils.UnixSocketClient
	apiVersion string
	logger     zerolog.Logger
}

// NewKeyService creates a client for the key service listening on socketPath.
func NewKeyService(socketPath string, logger zerolog.Logger) *KeyService {
	return &KeyService{
		client:     http_utils.NewUnixSocketClient(socketPath, constants.KeyServiceHost),
		apiVersion: constants.AziotAPIVersion,
		logger:     logger,
	}
}

// Sign asks the key service to sign data with the key behind handle.
func (ks *KeyService) Sign(ctx context.Context, handle KeyHandle, mechanism Mechanism, data []byte) ([]byte, error) {
	if handle.IsZero() {
		return nil, errkind.Configuration("missing key handle")
	}

	request := models.SignRequest{
		KeyHandle: handle.value,
		Algorithm: string(mechanism),
		Parameters: models.SignParameters{
			Message: base64.StdEncoding.EncodeToString(data),
		},
	}

	ks.logger.Debug().
		Str("socket", ks.client.SocketPath()).
		Str("algorithm", string(mechanism)).
		Int("message_size", len(data)).
		Msg("Requesting signature from key service")

	var response models.SignResponse
	err := ks.client.DoJSON(ctx, http.MethodPost, "/sign", url.Values{"api-version": {ks.apiVersion}}, request, &response)
	if err != nil {
		if errors.Is(err, http_utils.ErrMalformedResponse) {
			return nil, errkind.Protocol("failed to decode signature", err)
		}
		return nil, errkind.Dependency("failed to sign digest", err)
	}

	signature, err := base64.StdEncoding.DecodeString(response.Signature)
	if err != nil {
		return nil, errkind.Protocol("failed to decode signature", err)
	}
	if len(signature) == 0 {
		return nil, errkind.Protocol("failed to decode signature", fmt.Errorf("key service returned an empty signature"))
	}

	return signature, nil
}
