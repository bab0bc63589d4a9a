package utils

import (
	"fmt"
	"time"

	"github.com/benmeehan/aziot-sas-agent/internal/constants"
	"github.com/benmeehan/aziot-sas-agent/internal/errkind"
	"github.com/benmeehan/aziot-sas-agent/pkg/file"
)

// Config represents the structure of the configuration file.
// Every field has a default; the file only overrides them.
type Config struct {
	Logging struct {
		Level  string `yaml:"level"`  // debug, info, warn or error
		Format string `yaml:"format"` // json or console
	} `yaml:"logging"`

	Identity struct {
		SocketPath string        `yaml:"socket_path"` // Unix socket of the identity service
		Timeout    time.Duration `yaml:"timeout"`     // Timeout of the caller identity query
	} `yaml:"identity"`

	Keys struct {
		SocketPath string        `yaml:"socket_path"` // Unix socket of the key service
		Timeout    time.Duration `yaml:"timeout"`     // Timeout of the signing request
	} `yaml:"keys"`

	MQTT struct {
		TrustStore        string        `yaml:"trust_store"`        // PEM bundle of the IoT Hub root CAs
		ConnectTimeout    time.Duration `yaml:"connect_timeout"`    // Timeout waiting for the CONNACK
		PublishTimeout    time.Duration `yaml:"publish_timeout"`    // Timeout waiting for the PUBACK
		DisconnectTimeout time.Duration `yaml:"disconnect_timeout"` // Quiesce period of the disconnect
	} `yaml:"mqtt"`
}

// DefaultConfig returns the configuration of a standard aziot installation.
func DefaultConfig() *Config {
	var config Config
	config.Logging.Level = "info"
	config.Logging.Format = "json"
	config.Identity.SocketPath = constants.IdentityServiceSocket
	config.Identity.Timeout = 10 * time.Second
	config.Keys.SocketPath = constants.KeyServiceSocket
	config.Keys.Timeout = 10 * time.Second
	config.MQTT.TrustStore = "Baltimore.pem"
	config.MQTT.ConnectTimeout = 30 * time.Second
	config.MQTT.PublishTimeout = 30 * time.Second
	config.MQTT.DisconnectTimeout = 5 * time.Second
	return &config
}

// LoadConfig loads the YAML configuration from the specified file on top of the defaults.
// A missing file yields the defaults.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	config := DefaultConfig()

	exists, err := fileClient.IsFileExists(filename)
	if err != nil {
		return nil, errkind.Configuration(fmt.Sprintf("failed to stat config file %s: %v", filename, err))
	}
	if exists {
		if err := fileClient.ReadYamlFile(filename, config); err != nil {
			return nil, errkind.Configuration(fmt.Sprintf("failed to load config file %s: %v", filename, err))
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate rejects values the agent cannot run with.
func (c *Config) Validate() error {
	paths := []struct {
		name  string
		value string
	}{
		{"identity.socket_path", c.Identity.SocketPath},
		{"keys.socket_path", c.Keys.SocketPath},
		{"mqtt.trust_store", c.MQTT.TrustStore},
	}
	for _, path := range paths {
		if path.value == "" {
			return errkind.Configuration(path.name + " must not be empty")
		}
	}

	timeouts := []struct {
		name  string
		value time.Duration
	}{
		{"identity.timeout", c.Identity.Timeout},
		{"keys.timeout", c.Keys.Timeout},
		{"mqtt.connect_timeout", c.MQTT.ConnectTimeout},
		{"mqtt.publish_timeout", c.MQTT.PublishTimeout},
		{"mqtt.disconnect_timeout", c.MQTT.DisconnectTimeout},
	}
	for _, timeout := range timeouts {
		if timeout.value <= 0 {
			return errkind.Configuration(fmt.Sprintf("%s must be positive, got %s", timeout.name, timeout.value))
		}
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return errkind.Configuration(fmt.Sprintf("logging.format must be json or console, got %q", c.Logging.Format))
	}
	return nil
}
