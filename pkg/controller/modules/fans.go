package modules

import (
	"fmt"
	"path"
	"strconv"
	"strings"
	"sync"

	mqtt_base "github.com/eclipse/paho.mqtt.golang"
	"github.com/lifaair-community/lifaair-mqtt/pkg/config"
	"github.com/lifaair-community/lifaair-mqtt/pkg/homeassistant"
	"github.com/lifaair-community/lifaair-mqtt/pkg/lifaair"
	"github.com/lifaair-community/lifaair-mqtt/pkg/mqtt"
	"github.com/lifaair-community/lifaair-mqtt/pkg/utils"
	"github.com/rs/zerolog/log"
)

const (
	fan          string = "fan"
	percentage   string = "percentage"
	presetMode   string = "preset_mode"
	availability string = "availability"

	payloadOn   string = "ON"
	payloadOff  string = "OFF"
	presetNone  string = "None"
	fanListener string = "fans"
)

// The fan module exposes the purifier fan to Home Assistant: it derives the
// entity attributes from every coordinator snapshot and translates the MQTT
// commands into device calls.
type FanModule struct {
	mqttClient  mqtt.Client
	client      lifaair.Client
	coordinator lifaair.Coordinator

	deviceId   string
	deviceName string

	// Coordinator listeners run on the refresh ticker, the websocket reader
	// and the MQTT handler goroutines, so the derived attributes need a lock.
	// It is never held across a device call: set calls feed their response
	// back through the coordinator and re-enter onStateUpdate.
	attributesMutex sync.Mutex
	available       bool
	currPresetMode  *string
	currPercentage  *int
}

func (c *FanModule) Start() error {
	if err := c.coordinator.AddListener(fanListener, c.onStateUpdate); err != nil {
		return err
	}

	subscriptions := map[string]func(payload string) error{
		fanCommandTopic():        c.onCommandMessage,
		percentageCommandTopic(): c.onPercentageMessage,
		presetModeCommandTopic(): c.onPresetModeMessage,
	}
	for topic, handler := range subscriptions {
		topicCopy := topic
		handlerCopy := handler
		log.Trace().Str("topic", topicCopy).Msg("Subscribing for topic.")
		if err := c.mqttClient.Subscribe(topicCopy, func(client mqtt_base.Client, message mqtt_base.Message) {
			payload := string(message.Payload())
			log.Trace().
				Str("topic", topicCopy).
				Str("payload", payload).
				Msg("Message Received.")
			if err := handlerCopy(payload); err != nil {
				log.Error().
					Str("topic", topicCopy).
					Err(err).
					Msg("Error handling MQTT Message.")
			}
		}); err != nil {
			return err
		}
	}
	return nil
}

func (c *FanModule) Stop() error {
	return c.coordinator.RemoveListener(fanListener)
}

// onStateUpdate derives the entity attributes from a device snapshot. It
// never calls the device: a snapshot without fan_mode only marks the entity
// unavailable and leaves the previous attributes in place.
func (c *FanModule) onStateUpdate(state lifaair.DeviceState) {
	c.attributesMutex.Lock()
	c.available = state.FanMode != nil
	if c.available {
		mode := *state.FanMode
		if mode == lifaair.FanModeOff {
			c.currPresetMode = nil
		} else {
			name := mode.Name()
			c.currPresetMode = &name
		}

		if state.FanSpeed != nil {
			p := lifaair.SpeedToPercentage(*state.FanSpeed)
			c.currPercentage = &p
		}
	}
	available := c.available
	presetMode := c.currPresetMode
	percentage := c.currPercentage
	c.attributesMutex.Unlock()
	c.publishState(available, presetMode, percentage)
}

// SetPresetMode resolves the preset name and requests the matching mode on
// the device.
func (c *FanModule) SetPresetMode(preset string) error {
	mode, err := lifaair.FanModeFromName(preset)
	if err != nil {
		return err
	}
	if mode == lifaair.FanModeManual {
		// Switch to MANUAL mode while preserving current fan speed. Entering
		// MANUAL takes a speed value, not a bare mode command.
		p := 50
		c.attributesMutex.Lock()
		if c.currPercentage != nil {
			p = *c.currPercentage
		}
		c.attributesMutex.Unlock()
		return c.SetPercentage(p)
	}
	wasSetToAuto, err := c.turnOnIfNeeded(false)
	if err != nil {
		return err
	}
	if wasSetToAuto && mode == lifaair.FanModeAuto {
		// The turn on already put the device in AUTO, a second mode call
		// would be redundant.
		return nil
	}
	return c.request(func() (*lifaair.DeviceState, error) {
		return c.client.SetFanMode(mode)
	})
}

// SetPercentage requests the given speed percentage on the device.
func (c *FanModule) SetPercentage(p int) error {
	if _, err := c.turnOnIfNeeded(false); err != nil {
		return err
	}
	return c.request(func() (*lifaair.DeviceState, error) {
		return c.client.SetFanSpeed(lifaair.PercentageToSpeed(p))
	})
}

// TurnOn turns on the fan. Uses AUTO mode if no mode is given. Providing a
// percentage takes priority and forces MANUAL mode.
func (c *FanModule) TurnOn(p *int, preset *string) error {
	if p != nil {
		return c.SetPercentage(*p)
	}
	if preset != nil {
		return c.SetPresetMode(*preset)
	}
	_, err := c.turnOnIfNeeded(true)
	return err
}

// TurnOff turns off the fan.
func (c *FanModule) TurnOff() error {
	return c.request(func() (*lifaair.DeviceState, error) {
		return c.client.SetFanMode(lifaair.FanModeOff)
	})
}

// If the fan is turned off it must be set to AUTO mode before sending any
// other command. Otherwise the device rejects them with a -5 error.
func (c *FanModule) turnOnIfNeeded(force bool) (bool, error) {
	c.attributesMutex.Lock()
	needed := force || c.currPresetMode == nil
	c.attributesMutex.Unlock()
	if !needed {
		return false, nil
	}
	if err := c.request(func() (*lifaair.DeviceState, error) {
		return c.client.SetFanMode(lifaair.FanModeAuto)
	}); err != nil {
		return false, err
	}
	return true, nil
}

// All state setting device calls also return the current updated state, so
// feed it to the coordinator to immediately update the published state
// without waiting for the next refresh.
func (c *FanModule) request(call func() (*lifaair.DeviceState, error)) error {
	state, err := call()
	if err != nil {
		return err
	}
	c.coordinator.SetUpdatedData(*state)
	return nil
}

func (c *FanModule) onCommandMessage(payload string) error {
	switch strings.ToUpper(payload) {
	case payloadOn:
		return c.TurnOn(nil, nil)
	case payloadOff:
		return c.TurnOff()
	default:
		return fmt.Errorf("unexpected fan command '%s'", payload)
	}
}

func (c *FanModule) onPercentageMessage(payload string) error {
	p, err := strconv.Atoi(payload)
	if err != nil {
		return fmt.Errorf("error parsing message as percentage value: %w", err)
	}
	if p < 0 || p > 100 {
		return fmt.Errorf("percentage %d out of range [0,100]", p)
	}
	if p == 0 {
		// Home Assistant maps percentage 0 to off.
		return c.TurnOff()
	}
	return c.SetPercentage(p)
}

func (c *FanModule) onPresetModeMessage(payload string) error {
	return c.SetPresetMode(payload)
}

func (c *FanModule) publishState(available bool, currPresetMode *string, currPercentage *int) {
	availabilityPayload := mqtt.Offline
	if available {
		availabilityPayload = mqtt.Online
	}
	if err := c.mqttClient.Publish(fanAvailabilityTopic(), availabilityPayload); err != nil {
		log.Error().Err(err).Msg("Error publishing fan availability.")
	}
	if !available {
		return
	}

	statePayload := payloadOff
	presetPayload := presetNone
	if currPresetMode != nil {
		statePayload = payloadOn
		presetPayload = *currPresetMode
	}
	if err := c.mqttClient.Publish(fanStateTopic(), statePayload); err != nil {
		log.Error().Err(err).Msg("Error publishing fan state.")
	}
	if err := c.mqttClient.Publish(presetModeStateTopic(), presetPayload); err != nil {
		log.Error().Err(err).Msg("Error publishing fan preset mode.")
	}
	if currPercentage != nil {
		if err := c.mqttClient.Publish(percentageStateTopic(), strconv.Itoa(*currPercentage)); err != nil {
			log.Error().Err(err).Msg("Error publishing fan percentage.")
		}
	}
}

func fanStateTopic() string {
	return path.Join(fan, mqtt.State)
}

func fanCommandTopic() string {
	return path.Join(fan, mqtt.Command)
}

func percentageStateTopic() string {
	return path.Join(fan, percentage, mqtt.State)
}

func percentageCommandTopic() string {
	return path.Join(fan, percentage, mqtt.Command)
}

func presetModeStateTopic() string {
	return path.Join(fan, presetMode, mqtt.State)
}

func presetModeCommandTopic() string {
	return path.Join(fan, presetMode, mqtt.Command)
}

func fanAvailabilityTopic() string {
	return path.Join(fan, availability)
}

func (c *FanModule) GetHomeAssistantEntities() ([]homeassistant.DiscoveryConfig, error) {
	entityConfig := &homeassistant.FanConfig{
		BaseConfig: homeassistant.BaseConfig{
			Device: homeassistant.Device{
				Identifiers: []string{c.deviceId},
				Model:       "LIFAair air purifier",
				Name:        c.deviceName,
			},
			Name:     c.deviceName,
			UniqueId: c.deviceId + "_fan",
			Availability: []homeassistant.Availability{
				{
					Topic:               c.mqttClient.GetFullTopic(fanAvailabilityTopic()),
					PayloadAvailable:    mqtt.Online,
					PayloadNotAvailable: mqtt.Offline,
				},
			},
		},
		CommandTopic:           c.mqttClient.GetFullTopic(fanCommandTopic()),
		StateTopic:             c.mqttClient.GetFullTopic(fanStateTopic()),
		PayloadOn:              payloadOn,
		PayloadOff:             payloadOff,
		PercentageStateTopic:   c.mqttClient.GetFullTopic(percentageStateTopic()),
		PercentageCommandTopic: c.mqttClient.GetFullTopic(percentageCommandTopic()),
		SpeedRangeMin:          1,
		SpeedRangeMax:          100,
		PresetModeStateTopic:   c.mqttClient.GetFullTopic(presetModeStateTopic()),
		PresetModeCommandTopic: c.mqttClient.GetFullTopic(presetModeCommandTopic()),
		PresetModes:            lifaair.FanModeNames(),
		PayloadResetPresetMode: presetNone,
	}
	config := homeassistant.DiscoveryConfig{
		Domain:   homeassistant.Fan,
		DeviceId: c.deviceId,
		ObjectId: "fan",
		Config:   entityConfig,
	}
	return []homeassistant.DiscoveryConfig{config}, nil
}

func NewFanModule(mqttClient mqtt.Client, client lifaair.Client, coordinator lifaair.Coordinator, config *config.Config) Module {
	return &FanModule{
		mqttClient:  mqttClient,
		client:      client,
		coordinator: coordinator,
		deviceId:    "lifaair_" + utils.NormalizeForTopicName(strings.ToLower(config.Lifaair.Host)),
		deviceName:  config.Lifaair.DeviceName,
	}
}

func init() {
	Register("fans", NewFanModule)
}
