package mocks

import (
	"context"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/mock"

	agentmqtt "github.com/benmeehan/aziot-sas-agent/pkg/mqtt"
	"github.com/benmeehan/aziot-sas-agent/pkg/sas"
)

// MockMQTTClient is a mock implementation of the MQTTClient interface
type MockMQTTClient struct {
	mock.Mock
}

func (m *MockMQTTClient) Connect() mqtt.Token {
	args := m.Called()
	return args.Get(0).(mqtt.Token)
}

func (m *MockMQTTClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	args := m.Called(topic, qos, retained, payload)
	return args.Get(0).(mqtt.Token)
}

func (m *MockMQTTClient) Disconnect(quiesce uint) {
	m.Called(quiesce)
}

func (m *MockMQTTClient) IsConnectionOpen() bool {
	args := m.Called()
	return args.Bool(0)
}

// MockSessionOpener is a mock implementation of the SessionOpenerInterface
type MockSessionOpener struct {
	mock.Mock
}

func (m *MockSessionOpener) Open(ctx context.Context, hubName, deviceID, moduleID string, token sas.Token) (agentmqtt.SessionInterface, error) {
	args := m.Called(ctx, hubName, deviceID, moduleID, token)
	session, _ := args.Get(0).(agentmqtt.SessionInterface)
	return session, args.Error(1)
}

// MockSession is a mock implementation of the SessionInterface
type MockSession struct {
	mock.Mock
}

func (m *MockSession) Publish(ctx context.Context, deviceID, moduleID string, body []byte) error {
	args := m.Called(ctx, deviceID, moduleID, body)
	return args.Error(0)
}

func (m *MockSession) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
