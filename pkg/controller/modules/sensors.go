package modules

import (
	"path"
	"strconv"
	"strings"

	"github.com/lifaair-community/lifaair-mqtt/pkg/config"
	"github.com/lifaair-community/lifaair-mqtt/pkg/homeassistant"
	"github.com/lifaair-community/lifaair-mqtt/pkg/lifaair"
	"github.com/lifaair-community/lifaair-mqtt/pkg/mqtt"
	"github.com/lifaair-community/lifaair-mqtt/pkg/utils"
	"github.com/rs/zerolog/log"
)

const (
	sensor         string = "sensor"
	sensorListener string = "sensors"
)

type sensorDefinition struct {
	id          string
	name        string
	deviceClass string
	unit        string
	icon        string
	value       func(state lifaair.DeviceState) *string
}

// The purifier monitor ships air quality probes next to the fan unit, expose
// them as plain sensors.
var sensorDefinitions = []sensorDefinition{
	{
		id:          "pm25",
		name:        "PM2.5",
		deviceClass: "pm25",
		unit:        "µg/m³",
		icon:        "mdi:blur",
		value: func(state lifaair.DeviceState) *string {
			if state.Pm25 == nil {
				return nil
			}
			v := strconv.Itoa(*state.Pm25)
			return &v
		},
	},
	{
		id:          "co2",
		name:        "CO2",
		deviceClass: "carbon_dioxide",
		unit:        "ppm",
		icon:        "mdi:molecule-co2",
		value: func(state lifaair.DeviceState) *string {
			if state.Co2 == nil {
				return nil
			}
			v := strconv.Itoa(*state.Co2)
			return &v
		},
	},
	{
		id:          "temperature",
		name:        "Temperature",
		deviceClass: "temperature",
		unit:        "°C",
		icon:        "mdi:thermometer",
		value: func(state lifaair.DeviceState) *string {
			if state.Temperature == nil {
				return nil
			}
			v := strconv.FormatFloat(*state.Temperature, 'f', 1, 64)
			return &v
		},
	},
	{
		id:          "humidity",
		name:        "Humidity",
		deviceClass: "humidity",
		unit:        "%",
		icon:        "mdi:water-percent",
		value: func(state lifaair.DeviceState) *string {
			if state.Humidity == nil {
				return nil
			}
			v := strconv.FormatFloat(*state.Humidity, 'f', 1, 64)
			return &v
		},
	},
}

// SensorsModule publishes the air quality readings of every coordinator
// snapshot to their sensor state topics.
type SensorsModule struct {
	mqttClient  mqtt.Client
	coordinator lifaair.Coordinator

	deviceId   string
	deviceName string
}

func (c *SensorsModule) Start() error {
	return c.coordinator.AddListener(sensorListener, c.onStateUpdate)
}

func (c *SensorsModule) Stop() error {
	return c.coordinator.RemoveListener(sensorListener)
}

func (c *SensorsModule) onStateUpdate(state lifaair.DeviceState) {
	for _, definition := range sensorDefinitions {
		value := definition.value(state)
		if value == nil {
			continue
		}
		if err := c.mqttClient.Publish(sensorStateTopic(definition.id), *value); err != nil {
			log.Error().
				Err(err).
				Str("sensor", definition.id).
				Msg("Error publishing sensor value.")
		}
	}
}

func sensorStateTopic(sensorId string) string {
	return path.Join(sensor, sensorId, mqtt.State)
}

func (c *SensorsModule) GetHomeAssistantEntities() ([]homeassistant.DiscoveryConfig, error) {
	configs := []homeassistant.DiscoveryConfig{}
	for _, definition := range sensorDefinitions {
		configs = append(configs, homeassistant.DiscoveryConfig{
			Domain:   homeassistant.Sensor,
			DeviceId: c.deviceId,
			ObjectId: definition.id,
			Config: &homeassistant.SensorConfig{
				BaseConfig: homeassistant.BaseConfig{
					Device: homeassistant.Device{
						Identifiers: []string{c.deviceId},
						Model:       "LIFAair air purifier",
						Name:        c.deviceName,
					},
					Name:     definition.name + " " + c.deviceName,
					UniqueId: c.deviceId + "_" + definition.id,
				},
				StateTopic:        c.mqttClient.GetFullTopic(sensorStateTopic(definition.id)),
				UnitOfMeasurement: definition.unit,
				DeviceClass:       definition.deviceClass,
				StateClass:        "measurement",
				Icon:              definition.icon,
			},
		})
	}
	return configs, nil
}

func NewSensorsModule(mqttClient mqtt.Client, client lifaair.Client, coordinator lifaair.Coordinator, config *config.Config) Module {
	return &SensorsModule{
		mqttClient:  mqttClient,
		coordinator: coordinator,
		deviceId:    "lifaair_" + utils.NormalizeForTopicName(strings.ToLower(config.Lifaair.Host)),
		deviceName:  config.Lifaair.DeviceName,
	}
}

func init() {
	Register("sensors", NewSensorsModule)
}
