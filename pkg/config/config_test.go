package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func setRequiredEnv() {
	os.Setenv("LIFAAIR_HOST", "test_ip")
	os.Setenv("LIFAAIR_API_KEY", "foo")
	os.Setenv("MQTT_URL", "tcp://localhost:1883")
}

func TestReadConfig(t *testing.T) {
	os.Clearenv()
	setRequiredEnv()

	c, err := ReadConfig()
	if err != nil {
		t.Fatalf("Error found: %s", err.Error())
	}

	assert.Equal(t, "test_ip", c.Lifaair.Host, "LIFAair host is wrong.")
	assert.Equal(t, 8080, c.Lifaair.Port, "LIFAair port default is wrong.")
	assert.Equal(t, "foo", c.Lifaair.ApiKey, "LIFAair api key is wrong.")
	assert.Equal(t, "LIFAair", c.Lifaair.DeviceName, "Device name default is wrong.")
	assert.Equal(t, "tcp://localhost:1883", c.Mqtt.MqttUrl, "MQTT url is wrong.")
	assert.Equal(t, "lifaair", c.Mqtt.TopicPrefix, "MQTT prefix is wrong.")
	assert.Equal(t, 30, c.RefreshIntervalSeconds, "Refresh interval default is wrong.")
	assert.True(t, c.RefreshAtStart, "Refresh at start default is wrong.")
	assert.True(t, c.HomeAssistant.DiscoveryEnabled, "Discovery default is wrong.")
	assert.Equal(t, "homeassistant", c.HomeAssistant.DiscoveryTopicPrefix, "Discovery prefix is wrong.")
	assert.Equal(t, "test_ip", c.HomeAssistant.LifaairHost, "Discovery host is wrong.")
	assert.Equal(t, "INFO", c.LogLevel, "Log level default is wrong.")
	assert.False(t, c.HealthCheck.Enabled, "Health check default is wrong.")
}

func TestReadConfigWithDeprecatedFields(t *testing.T) {
	os.Clearenv()
	setRequiredEnv()
	os.Setenv("LIFAAIR_POLL_SECONDS", "10")

	_, err := ReadConfig()
	assert.EqualError(t, err, "deprecated field found in config: lifaair_poll_seconds")
	os.Clearenv()
}

func TestReadConfigWithMissingRequiredFields(t *testing.T) {
	os.Clearenv()
	setRequiredEnv()
	os.Unsetenv("MQTT_URL")

	_, err := ReadConfig()
	assert.EqualError(t, err, "required field not found in config: mqtt_url")
	os.Clearenv()
}
