package utils_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/benmeehan/aziot-sas-agent/internal/errkind"
	"github.com/benmeehan/aziot-sas-agent/internal/mocks"
	"github.com/benmeehan/aziot-sas-agent/internal/utils"
	"github.com/benmeehan/aziot-sas-agent/pkg/file"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	// Setup
	mockFile := new(mocks.MockFileOperations)
	mockFile.On("IsFileExists", "configs/config.yaml").Return(false, nil).Once()

	// Execute
	config, err := utils.LoadConfig("configs/config.yaml", mockFile)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, utils.DefaultConfig(), config)
	assert.Equal(t, "/run/aziot/identityd.sock", config.Identity.SocketPath)
	assert.Equal(t, "/run/aziot/keyd.sock", config.Keys.SocketPath)
	assert.Equal(t, "Baltimore.pem", config.MQTT.TrustStore)
	mockFile.AssertExpectations(t)
	mockFile.AssertNotCalled(t, "ReadYamlFile", mock.Anything, mock.Anything)
}

func TestLoadConfig_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
logging:
  level: debug
mqtt:
  trust_store: /etc/aziot/certs/hub-root.pem
  publish_timeout: 45s
keys:
  timeout: 2s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	config, err := utils.LoadConfig(path, file.NewFileService())

	require.NoError(t, err)
	assert.Equal(t, "debug", config.Logging.Level)
	assert.Equal(t, "json", config.Logging.Format)
	assert.Equal(t, "/etc/aziot/certs/hub-root.pem", config.MQTT.TrustStore)
	assert.Equal(t, 45*time.Second, config.MQTT.PublishTimeout)
	assert.Equal(t, 30*time.Second, config.MQTT.ConnectTimeout)
	assert.Equal(t, 2*time.Second, config.Keys.Timeout)
	assert.Equal(t, "/run/aziot/identityd.sock", config.Identity.SocketPath)
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty socket", "identity:\n  socket_path: \"\"\n"},
		{"negative timeout", "mqtt:\n  connect_timeout: -1s\n"},
		{"unknown format", "logging:\n  format: xml\n"},
		{"unknown field", "mqtt:\n  broker: ssl://elsewhere:8883\n"},
		{"not yaml", "mqtt: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0600))

			_, err := utils.LoadConfig(path, file.NewFileService())

			assert.ErrorIs(t, err, errkind.ErrConfiguration)
		})
	}
}

func TestLoadConfig_StatFailure(t *testing.T) {
	mockFile := new(mocks.MockFileOperations)
	mockFile.On("IsFileExists", "config.yaml").Return(false, errors.New("permission denied")).Once()

	_, err := utils.LoadConfig("config.yaml", mockFile)

	assert.ErrorIs(t, err, errkind.ErrConfiguration)
	assert.Contains(t, err.Error(), "permission denied")
}
