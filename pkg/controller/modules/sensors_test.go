package modules

import (
	"testing"
	"time"

	"github.com/lifaair-community/lifaair-mqtt/pkg/config"
	"github.com/lifaair-community/lifaair-mqtt/pkg/homeassistant"
	"github.com/lifaair-community/lifaair-mqtt/pkg/lifaair"
	"github.com/stretchr/testify/assert"
)

func newSensorsModuleForTest(t *testing.T) (*SensorsModule, *fakeMqttClient) {
	t.Helper()
	deviceClient := &mockDeviceClient{}
	mqttClient := newFakeMqttClient()
	coordinator := lifaair.NewCoordinator(deviceClient, time.Minute)
	cfg := &config.Config{
		Lifaair: config.ConfigLifaair{
			Host:       "purifier.local",
			DeviceName: "LIFAair",
		},
	}
	module := NewSensorsModule(mqttClient, deviceClient, coordinator, cfg).(*SensorsModule)
	assert.NoError(t, module.Start())
	return module, mqttClient
}

func floatPtr(f float64) *float64 { return &f }

func TestSensorsPublishOnlyPresentReadings(t *testing.T) {
	module, mqttClient := newSensorsModuleForTest(t)

	pm25 := 12
	module.onStateUpdate(lifaair.DeviceState{
		Pm25:        &pm25,
		Temperature: floatPtr(21.54),
	})

	assert.Equal(t, "12", mqttClient.lastPayload(t, "sensor/pm25/state"))
	assert.Equal(t, "21.5", mqttClient.lastPayload(t, "sensor/temperature/state"))
	assert.Empty(t, mqttClient.published["sensor/co2/state"])
	assert.Empty(t, mqttClient.published["sensor/humidity/state"])
}

func TestSensorsDiscoveryConfigs(t *testing.T) {
	module, _ := newSensorsModuleForTest(t)

	configs, err := module.GetHomeAssistantEntities()
	assert.NoError(t, err)
	assert.Len(t, configs, 4)

	for _, discoveryConfig := range configs {
		assert.Equal(t, homeassistant.Sensor, discoveryConfig.Domain)
		assert.Equal(t, "lifaair_purifier_local", discoveryConfig.DeviceId)
		sensorConfig := discoveryConfig.Config.(*homeassistant.SensorConfig)
		assert.NotEmpty(t, sensorConfig.StateTopic)
		assert.NotEmpty(t, sensorConfig.DeviceClass)
	}
}
