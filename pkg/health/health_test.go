package health

import (
	"testing"
	"time"

	mqtt_base "github.com/eclipse/paho.mqtt.golang"
	"github.com/lifaair-community/lifaair-mqtt/pkg/config"
	"github.com/lifaair-community/lifaair-mqtt/pkg/lifaair"
	"github.com/stretchr/testify/assert"
)

type fakeMqttClient struct{}

func (c *fakeMqttClient) Connect() error    { return nil }
func (c *fakeMqttClient) Disconnect() error { return nil }
func (c *fakeMqttClient) Publish(topic string, message interface{}) error {
	return nil
}
func (c *fakeMqttClient) PublishAndRetain(topic string, message interface{}) error {
	return nil
}
func (c *fakeMqttClient) Subscribe(topic string, messageHandler mqtt_base.MessageHandler) error {
	return nil
}
func (c *fakeMqttClient) GetFullTopic(topic string) string { return topic }
func (c *fakeMqttClient) ServerStatusTopic() string        { return "lifaair/server/status" }
func (c *fakeMqttClient) RawClient() mqtt_base.Client      { return nil }

type fakeDeviceClient struct{}

func (c *fakeDeviceClient) Connect() error    { return nil }
func (c *fakeDeviceClient) Disconnect() error { return nil }
func (c *fakeDeviceClient) GetState() (*lifaair.DeviceState, error) {
	return &lifaair.DeviceState{}, nil
}
func (c *fakeDeviceClient) SetFanMode(mode lifaair.FanMode) (*lifaair.DeviceState, error) {
	return &lifaair.DeviceState{FanMode: &mode}, nil
}
func (c *fakeDeviceClient) SetFanSpeed(speed int) (*lifaair.DeviceState, error) {
	return &lifaair.DeviceState{FanSpeed: &speed}, nil
}
func (c *fakeDeviceClient) NotificationSubscribe(id string, callback lifaair.NotificationCallback) error {
	return nil
}
func (c *fakeDeviceClient) NotificationUnsubscribe(id string) error { return nil }

// Stop must shut the server down cleanly however long after Start it runs:
// the shutdown deadline starts counting at Stop time.
func TestStartAndStopShutDownCleanly(t *testing.T) {
	h := NewHealth(config.HealthCheckConfig{Enabled: true, Port: 0}, &fakeMqttClient{}, &fakeDeviceClient{})
	assert.NotNil(t, h)

	assert.NoError(t, h.Start())
	// Let the listener come up before tearing it down.
	time.Sleep(50 * time.Millisecond)
	assert.NoError(t, h.Stop())
}
