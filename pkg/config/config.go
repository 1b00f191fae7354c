package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type ConfigLifaair struct {
	Host       string
	Port       int
	ApiKey     string
	DeviceName string
}
type ConfigMqtt struct {
	MqttUrl     string
	Username    string
	Password    string
	TopicPrefix string
	Retain      bool
}
type ConfigHomeAssistant struct {
	DiscoveryEnabled     bool
	DiscoveryTopicPrefix string
	RemoveRegexpFromName string
	LifaairHost          string
	Retain               bool
}
type HealthCheckConfig struct {
	Enabled bool
	Port    int
}
type Config struct {
	Lifaair                ConfigLifaair
	Mqtt                   ConfigMqtt
	HomeAssistant          ConfigHomeAssistant
	HealthCheck            HealthCheckConfig
	RefreshIntervalSeconds int
	RefreshAtStart         bool
	LogLevel               string
}

const (
	undefined  string = "__undefined__"
	deprecated string = "__deprecated__"

	envKeyLifaairHost                       string = "lifaair_host"
	envKeyLifaairPort                       string = "lifaair_port"
	envKeyLifaairApiKey                     string = "lifaair_api_key"
	envKeyLifaairDeviceName                 string = "lifaair_device_name"
	envKeyLifaairPollSeconds                string = "lifaair_poll_seconds"
	envKeyMqttUrl                           string = "mqtt_url"
	envKeyMqttUsername                      string = "mqtt_username"
	envKeyMqttPassword                      string = "mqtt_password"
	envKeyMqttTopicPrefix                   string = "mqtt_topic_prefix"
	envKeyMqttRetain                        string = "mqtt_retain"
	envKeyRefreshIntervalSeconds            string = "refresh_interval_seconds"
	envKeyRefreshAtStart                    string = "refresh_at_start"
	envKeyLogLevel                          string = "log_level"
	envKeyHomeAssistantDiscoveryEnabled     string = "home_assistant_discovery_enabled"
	envKeyHomeAssistantDiscoveryPrefix      string = "home_assistant_discovery_prefix"
	envKeyHomeAssistantRemoveRegexpFromName string = "home_assistant_remove_regexp_from_name"
	envKeyHealthCheckEnabled                string = "health_check_enabled"
	envKeyHealthCheckPort                   string = "health_check_port"
)

var defaultConfig = map[string]interface{}{
	envKeyLifaairHost:                       undefined,
	envKeyLifaairPort:                       8080,
	envKeyLifaairApiKey:                     undefined,
	envKeyLifaairDeviceName:                 "LIFAair",
	envKeyLifaairPollSeconds:                deprecated,
	envKeyMqttUrl:                           undefined,
	envKeyMqttUsername:                      "",
	envKeyMqttPassword:                      "",
	envKeyMqttTopicPrefix:                   "lifaair",
	envKeyMqttRetain:                        false,
	envKeyRefreshIntervalSeconds:            30,
	envKeyRefreshAtStart:                    true,
	envKeyLogLevel:                          "INFO",
	envKeyHomeAssistantDiscoveryEnabled:     true,
	envKeyHomeAssistantDiscoveryPrefix:      "homeassistant",
	envKeyHomeAssistantRemoveRegexpFromName: "",
	envKeyHealthCheckEnabled:                false,
	envKeyHealthCheckPort:                   8082,
}

// ReadConfig returns a Config from the optional config.yaml next to the
// binary and from env variables.
func ReadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	// Set the current directory where the binary is being run.
	viper.AddConfigPath(".")
	viper.AutomaticEnv()
	for key, value := range defaultConfig {
		if value != undefined && value != deprecated {
			viper.SetDefault(key, value)
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// The config file is optional, env variables alone are enough.
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("ReadInConfig error: %w", err)
		}
	}

	// Check for deprecated and undefined fields.
	for fieldName, defaultValue := range defaultConfig {
		if defaultValue == deprecated && viper.IsSet(fieldName) {
			return nil, fmt.Errorf("deprecated field found in config: %s", fieldName)
		}
		if defaultValue == undefined && !viper.IsSet(fieldName) {
			return nil, fmt.Errorf("required field not found in config: %s", fieldName)
		}
	}

	config := &Config{
		Lifaair: ConfigLifaair{
			Host:       viper.GetString(envKeyLifaairHost),
			Port:       viper.GetInt(envKeyLifaairPort),
			ApiKey:     viper.GetString(envKeyLifaairApiKey),
			DeviceName: viper.GetString(envKeyLifaairDeviceName),
		},
		Mqtt: ConfigMqtt{
			MqttUrl:     viper.GetString(envKeyMqttUrl),
			Username:    viper.GetString(envKeyMqttUsername),
			Password:    viper.GetString(envKeyMqttPassword),
			TopicPrefix: viper.GetString(envKeyMqttTopicPrefix),
			Retain:      viper.GetBool(envKeyMqttRetain),
		},
		HomeAssistant: ConfigHomeAssistant{
			DiscoveryEnabled:     viper.GetBool(envKeyHomeAssistantDiscoveryEnabled),
			DiscoveryTopicPrefix: viper.GetString(envKeyHomeAssistantDiscoveryPrefix),
			RemoveRegexpFromName: viper.GetString(envKeyHomeAssistantRemoveRegexpFromName),
			LifaairHost:          viper.GetString(envKeyLifaairHost),
			Retain:               viper.GetBool(envKeyMqttRetain),
		},
		HealthCheck: HealthCheckConfig{
			Enabled: viper.GetBool(envKeyHealthCheckEnabled),
			Port:    viper.GetInt(envKeyHealthCheckPort),
		},
		RefreshIntervalSeconds: viper.GetInt(envKeyRefreshIntervalSeconds),
		RefreshAtStart:         viper.GetBool(envKeyRefreshAtStart),
		LogLevel:               viper.GetString(envKeyLogLevel),
	}

	return config, nil
}

func (c *Config) String() string {
	return fmt.Sprintf("%+v\n", c.Lifaair)
}
