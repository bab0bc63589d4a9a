package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/benmeehan/aziot-sas-agent/internal/constants"
	"github.com/benmeehan/aziot-sas-agent/internal/errkind"
	"github.com/benmeehan/aziot-sas-agent/pkg/file"
	"github.com/benmeehan/aziot-sas-agent/pkg/sas"
)

// MQTTClient is the subset of the paho client a session uses.
type MQTTClient interface {
	Connect() mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
	IsConnectionOpen() bool
}

// ClientFactory builds an MQTT client from its options.
type ClientFactory func(opts *mqtt.ClientOptions) MQTTClient

// SessionOpenerInterface opens an authenticated session to IoT Hub.
type SessionOpenerInterface interface {
	Open(ctx context.Context, hubName, deviceID, moduleID string, token sas.Token) (SessionInterface, error)
}

// SessionInterface is a connected IoT Hub session.
type SessionInterface interface {
	Publish(ctx context.Context, deviceID, moduleID string, body []byte) error
	Close(ctx context.Context) error
}

// MqttService opens IoT Hub sessions authenticated with SAS tokens.
type MqttService struct {
	fileClient     file.FileOperations
	trustStorePath string
	quiesce        time.Duration
	newClient      ClientFactory
	logger         zerolog.Logger
}

// NewMqttService creates a new MqttService trusting the CA certificates in trustStorePath.
// quiesce is how long a disconnect waits for in-flight work.
func NewMqttService(fileClient file.FileOperations, trustStorePath string, quiesce time.Duration, logger zerolog.Logger) *MqttService {
	return &MqttService{
		fileClient:     fileClient,
		trustStorePath: trustStorePath,
		quiesce:        quiesce,
		newClient: func(opts *mqtt.ClientOptions) MQTTClient {
			return mqtt.NewClient(opts)
		},
		logger: logger,
	}
}

// SetClientFactory replaces the paho client constructor.
func (s *MqttService) SetClientFactory(factory ClientFactory) {
	s.newClient = factory
}

// BrokerURL is the IoT Hub MQTT endpoint of hubName.
func BrokerURL(hubName string) string {
	return fmt.Sprintf("%s://%s:%d", constants.BrokerScheme, hubName, constants.BrokerPort)
}

// Username is the MQTT user name IoT Hub expects from a module.
func Username(hubName, deviceID, moduleID string) string {
	return fmt.Sprintf("%s/%s/%s/?api-version=%s", hubName, deviceID, moduleID, constants.HubAPIVersion)
}

// TelemetryTopic is the device-to-cloud topic of a module, with a JSON content type.
func TelemetryTopic(deviceID, moduleID string) string {
	return fmt.Sprintf(constants.TelemetryTopicFormat, deviceID, moduleID)
}

// ClientOptions builds the paho options of a single, non-persistent, non-reconnecting session.
func (s *MqttService) ClientOptions(hubName, deviceID, moduleID string, token sas.Token, tlsConfig *tls.Config) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(BrokerURL(hubName))
	opts.SetClientID(deviceID + "/" + moduleID)
	opts.SetProtocolVersion(constants.MQTTProtocolVersion)
	opts.SetStore(mqtt.NewMemoryStore())
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)
	opts.SetUsername(Username(hubName, deviceID, moduleID))
	opts.SetPassword(token.String())
	opts.SetTLSConfig(tlsConfig)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		s.logger.Error().Err(err).Str("hub_name", hubName).Msg("Connection to IoT Hub lost")
	})
	return opts
}

// Open connects to IoT Hub and returns the session once the CONNACK is received.
func (s *MqttService) Open(ctx context.Context, hubName, deviceID, moduleID string, token sas.Token) (SessionInterface, error) {
	tlsConfig, err := s.loadTLSConfig()
	if err != nil {
		return nil, err
	}

	opts := s.ClientOptions(hubName, deviceID, moduleID, token, tlsConfig)
	if deadline, ok := ctx.Deadline(); ok {
		opts.SetConnectTimeout(time.Until(deadline))
	}

	s.logger.Info().
		Str("broker", BrokerURL(hubName)).
		Str("client_id", opts.ClientID).
		Time("token_expiry", token.ExpiresAt()).
		Msg("Connecting to IoT Hub")

	client := s.newClient(opts)
	if err := waitToken(ctx, client.Connect()); err != nil {
		return nil, errkind.Dependency("failed to connect to IoT Hub", err)
	}

	s.logger.Info().Str("hub_name", hubName).Msg("Connected to IoT Hub")

	return &Session{
		client:  client,
		quiesce: s.quiesce,
		logger:  s.logger.With().Str("client_id", opts.ClientID).Logger(),
	}, nil
}

// loadTLSConfig trusts only the CA certificates of the trust store.
func (s *MqttService) loadTLSConfig() (*tls.Config, error) {
	caCert, err := s.fileClient.ReadFileRaw(s.trustStorePath)
	if err != nil {
		return nil, errkind.Configuration(fmt.Sprintf("failed to read trust store %s: %v", s.trustStorePath, err))
	}

	caCertPool := x509.NewCertPool()
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, errkind.Configuration(fmt.Sprintf("trust store %s contains no PEM certificate", s.trustStorePath))
	}

	return &tls.Config{
		RootCAs:    caCertPool,
		MinVersion: tls.VersionTLS12,
	}, nil
}

// Session is one connected IoT Hub client.
type Session struct {
	client  MQTTClient
	quiesce time.Duration
	logger  zerolog.Logger
	closed  bool
}

// Publish sends the telemetry body at QoS 1 and returns once IoT Hub acknowledged it.
func (s *Session) Publish(ctx context.Context, deviceID, moduleID string, body []byte) error {
	if s.closed || !s.client.IsConnectionOpen() {
		return errkind.Dependency("failed to submit telemetry", errors.New("session is not connected"))
	}

	topic := TelemetryTopic(deviceID, moduleID)
	s.logger.Info().Str("topic", topic).Msg("Publishing data")

	token := s.client.Publish(topic, constants.TelemetryQOS, false, body)
	if err := waitToken(ctx, token); err != nil {
		return errkind.Dependency("telemetry was not acknowledged", err)
	}

	s.logger.Info().Msg("Successfully sent data to IoT Hub")
	return nil
}

// Close disconnects from IoT Hub. It must only follow an acknowledged publish.
func (s *Session) Close(ctx context.Context) error {
	if s.closed {
		return errkind.Dependency("failed to disconnect", errors.New("session already closed"))
	}
	if !s.client.IsConnectionOpen() {
		return errkind.Dependency("failed to disconnect", errors.New("session is not connected"))
	}

	quiesce := s.quiesce
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < quiesce {
		quiesce = time.Until(deadline)
	}
	if quiesce < 0 {
		quiesce = 0
	}

	s.client.Disconnect(uint(quiesce.Milliseconds()))
	s.closed = true

	s.logger.Info().Msg("Disconnected from IoT Hub")
	return nil
}

// waitToken blocks until token completes or ctx is done.
func waitToken(ctx context.Context, token mqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
