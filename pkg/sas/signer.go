package sas

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/benmeehan/aziot-sas-agent/pkg/keys"
)

// TokenSignerInterface derives a SAS token for a module identity.
type TokenSignerInterface interface {
	Sign(ctx context.Context, hubName, deviceID, moduleID string, handle keys.KeyHandle, now time.Time) (Token, error)
}

// Signer derives SAS tokens by having the key service sign them.
type Signer struct {
	keyService keys.KeyServiceInterface
	logger     zerolog.Logger
}

// NewSigner creates a Signer backed by keyService.
func NewSigner(keyService keys.KeyServiceInterface, logger zerolog.Logger) *Signer {
	return &Signer{
		keyService: keyService,
		logger:     logger,
	}
}

// Sign builds the token for hubName/deviceID/moduleID valid from now.
func (s *Signer) Sign(ctx context.Context, hubName, deviceID, moduleID string, handle keys.KeyHandle, now time.Time) (Token, error) {
	resource := ResourceURI(hubName, deviceID, moduleID)
	expiry := Expiry(now)

	s.logger.Info().Str("resource", resource).Int64("expiry", expiry).Msg("Creating SAS token signature")

	signature, err := s.keyService.Sign(ctx, handle, keys.HMACSHA256, []byte(StringToSign(resource, expiry)))
	if err != nil {
		return Token{}, fmt.Errorf("failed to create SAS token: %w", err)
	}

	return NewToken(resource, expiry, signature), nil
}
