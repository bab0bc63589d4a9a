package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/benmeehan/aziot-sas-agent/internal/constants"
	"github.com/benmeehan/aziot-sas-agent/internal/models"
	"github.com/benmeehan/aziot-sas-agent/pkg/identity"
	"github.com/benmeehan/aziot-sas-agent/pkg/mqtt"
	"github.com/benmeehan/aziot-sas-agent/pkg/sas"
)

// Timeouts bounds every network-bound step of the flow. A zero value disables the bound.
type Timeouts struct {
	Identity   time.Duration
	Sign       time.Duration
	Connect    time.Duration
	Publish    time.Duration
	Disconnect time.Duration
}

// TelemetryService resolves the module identity, derives a SAS token, and sends one
// telemetry message with it. It runs exactly once; there are no retries.
type TelemetryService struct {
	resolver  identity.ResolverInterface
	signer    sas.TokenSignerInterface
	messaging mqtt.SessionOpenerInterface
	timeouts  Timeouts
	now       func() time.Time
	logger    zerolog.Logger

	mu               sync.Mutex
	started          bool
	state            constants.FlowState
	validTransitions map[constants.FlowState][]constants.FlowState
}

// NewTelemetryService creates a TelemetryService in the start state.
func NewTelemetryService(resolver identity.ResolverInterface, signer sas.TokenSignerInterface,
	messaging mqtt.SessionOpenerInterface, timeouts Timeouts, logger zerolog.Logger) *TelemetryService {

	return &TelemetryService{
		resolver:  resolver,
		signer:    signer,
		messaging: messaging,
		timeouts:  timeouts,
		now:       time.Now,
		logger:    logger,
		state:     constants.FlowStateStart,
		validTransitions: map[constants.FlowState][]constants.FlowState{
			constants.FlowStateStart:            {constants.FlowStateIdentityResolved, constants.FlowStateFailed},
			constants.FlowStateIdentityResolved: {constants.FlowStateTokenSigned, constants.FlowStateFailed},
			constants.FlowStateTokenSigned:      {constants.FlowStateSessionOpen, constants.FlowStateFailed},
			constants.FlowStateSessionOpen:      {constants.FlowStatePublished, constants.FlowStateFailed},
			constants.FlowStatePublished:        {constants.FlowStateClosed, constants.FlowStateFailed},
			constants.FlowStateClosed:           {constants.FlowStateDone},
			constants.FlowStateDone:             {},
			constants.FlowStateFailed:           {},
		},
	}
}

// SetClock replaces the time source used for the token expiry.
func (ts *TelemetryService) SetClock(now func() time.Time) {
	ts.now = now
}

// State returns the current state of the flow.
func (ts *TelemetryService) State() constants.FlowState {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.state
}

// Run executes the flow. The first failure stops it in the failed state and is returned.
func (ts *TelemetryService) Run(ctx context.Context) error {
	ts.mu.Lock()
	if ts.started {
		ts.mu.Unlock()
		return errors.New("telemetry flow already ran")
	}
	ts.started = true
	ts.mu.Unlock()

	ts.logger.Info().Msg("Starting telemetry flow")

	if err := ts.run(ctx); err != nil {
		if transitionErr := ts.transition(constants.FlowStateFailed); transitionErr != nil {
			return errors.Join(err, transitionErr)
		}
		return err
	}

	ts.logger.Info().Msg("Telemetry flow completed")
	return nil
}

func (ts *TelemetryService) run(ctx context.Context) error {
	device, err := ts.resolveIdentity(ctx)
	if err != nil {
		return err
	}
	if err := ts.transition(constants.FlowStateIdentityResolved); err != nil {
		return err
	}

	token, err := ts.signToken(ctx, device)
	if err != nil {
		return err
	}
	if err := ts.transition(constants.FlowStateTokenSigned); err != nil {
		return err
	}

	session, err := ts.openSession(ctx, device, token)
	if err != nil {
		return err
	}
	if err := ts.transition(constants.FlowStateSessionOpen); err != nil {
		return err
	}

	if err := ts.publish(ctx, session, device); err != nil {
		return err
	}
	if err := ts.transition(constants.FlowStatePublished); err != nil {
		return err
	}

	if err := ts.closeSession(ctx, session); err != nil {
		return err
	}
	if err := ts.transition(constants.FlowStateClosed); err != nil {
		return err
	}

	return ts.transition(constants.FlowStateDone)
}

func (ts *TelemetryService) resolveIdentity(ctx context.Context) (*identity.DeviceIdentity, error) {
	stepCtx, cancel := withTimeout(ctx, ts.timeouts.Identity)
	defer cancel()

	device, err := ts.resolver.Resolve(stepCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve device identity: %w", err)
	}
	return device, nil
}

func (ts *TelemetryService) signToken(ctx context.Context, device *identity.DeviceIdentity) (sas.Token, error) {
	stepCtx, cancel := withTimeout(ctx, ts.timeouts.Sign)
	defer cancel()

	token, err := ts.signer.Sign(stepCtx, device.HubName, device.DeviceID, device.ModuleID, device.KeyHandle, ts.now())
	if err != nil {
		return sas.Token{}, fmt.Errorf("failed to derive SAS token: %w", err)
	}

	ts.logger.Info().Time("token_expiry", token.ExpiresAt()).Msg("SAS token derived")
	return token, nil
}

func (ts *TelemetryService) openSession(ctx context.Context, device *identity.DeviceIdentity, token sas.Token) (mqtt.SessionInterface, error) {
	stepCtx, cancel := withTimeout(ctx, ts.timeouts.Connect)
	defer cancel()

	session, err := ts.messaging.Open(stepCtx, device.HubName, device.DeviceID, device.ModuleID, token)
	if err != nil {
		return nil, fmt.Errorf("failed to open IoT Hub session: %w", err)
	}
	return session, nil
}

func (ts *TelemetryService) publish(ctx context.Context, session mqtt.SessionInterface, device *identity.DeviceIdentity) error {
	body, err := json.Marshal(models.TelemetryMessage{
		Message: fmt.Sprintf("Hello from %s/%s", device.DeviceID, device.ModuleID),
	})
	if err != nil {
		return fmt.Errorf("failed to serialize telemetry message: %w", err)
	}

	stepCtx, cancel := withTimeout(ctx, ts.timeouts.Publish)
	defer cancel()

	if err := session.Publish(stepCtx, device.DeviceID, device.ModuleID, body); err != nil {
		return fmt.Errorf("failed to publish telemetry: %w", err)
	}
	return nil
}

func (ts *TelemetryService) closeSession(ctx context.Context, session mqtt.SessionInterface) error {
	stepCtx, cancel := withTimeout(ctx, ts.timeouts.Disconnect)
	defer cancel()

	if err := session.Close(stepCtx); err != nil {
		return fmt.Errorf("failed to close IoT Hub session: %w", err)
	}
	return nil
}

// transition moves the flow forward, rejecting any edge not in validTransitions.
func (ts *TelemetryService) transition(next constants.FlowState) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	for _, allowed := range ts.validTransitions[ts.state] {
		if allowed == next {
			ts.logger.Debug().Str("from", string(ts.state)).Str("to", string(next)).Msg("Telemetry flow state changed")
			ts.state = next
			return nil
		}
	}
	return fmt.Errorf("invalid telemetry flow transition from %s to %s", ts.state, next)
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
