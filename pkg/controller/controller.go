package controller

import (
	"fmt"
	"time"

	"github.com/lifaair-community/lifaair-mqtt/pkg/config"
	"github.com/lifaair-community/lifaair-mqtt/pkg/controller/modules"
	"github.com/lifaair-community/lifaair-mqtt/pkg/homeassistant"
	"github.com/lifaair-community/lifaair-mqtt/pkg/lifaair"
	"github.com/lifaair-community/lifaair-mqtt/pkg/mqtt"
	"github.com/rs/zerolog/log"
)

type Controller struct {
	config *config.Config

	deviceClient lifaair.Client
	coordinator  lifaair.Coordinator
	mqttClient   mqtt.Client
	discovery    *homeassistant.HomeAssistantDiscovery

	modules map[string]modules.Module
}

func NewController(config *config.Config) *Controller {
	deviceOptions := lifaair.NewClientOptions().
		SetHost(config.Lifaair.Host).
		SetPort(config.Lifaair.Port).
		SetApiKey(config.Lifaair.ApiKey)
	deviceClient := lifaair.NewClient(deviceOptions)
	coordinator := lifaair.NewCoordinator(
		deviceClient,
		time.Duration(config.RefreshIntervalSeconds)*time.Second)

	mqttOptions := mqtt.NewClientOptions().
		SetMqttUrl(config.Mqtt.MqttUrl).
		SetUsername(config.Mqtt.Username).
		SetPassword(config.Mqtt.Password).
		SetTopicPrefix(config.Mqtt.TopicPrefix).
		SetRetain(config.Mqtt.Retain)
	mqttClient := mqtt.NewClient(mqttOptions)

	controller := Controller{
		config:       config,
		deviceClient: deviceClient,
		coordinator:  coordinator,
		mqttClient:   mqttClient,
		discovery:    homeassistant.NewHomeAssistantDiscovery(mqttClient, &config.HomeAssistant),
		modules:      map[string]modules.Module{},
	}

	for name, builder := range modules.Modules {
		module := builder(mqttClient, deviceClient, coordinator, config)
		controller.modules[name] = module
	}

	return &controller
}

func (c *Controller) Start() error {
	log.Info().Msg("Starting controller.")
	if err := c.mqttClient.Connect(); err != nil {
		return fmt.Errorf("error connecting to MQTT client: %w", err)
	}
	if err := c.deviceClient.Connect(); err != nil {
		return fmt.Errorf("error connecting to LIFAair device: %w", err)
	}

	for name, module := range c.modules {
		log.Info().Str("module", name).Msg("Starting module.")
		if err := module.Start(); err != nil {
			return fmt.Errorf("error starting module '%s': %w", name, err)
		}
	}

	// The coordinator starts after the modules so that no snapshot is fanned
	// out before the listeners are in place.
	if err := c.coordinator.Start(); err != nil {
		return fmt.Errorf("error starting coordinator: %w", err)
	}
	if c.config.RefreshAtStart {
		go func() {
			if err := c.coordinator.Refresh(); err != nil {
				log.Error().Err(err).Msg("Error refreshing device state at start")
			}
		}()
	}

	return c.publishDiscoveryMessages()
}

func (c *Controller) publishDiscoveryMessages() error {
	for name, module := range c.modules {
		provider, ok := module.(homeassistant.HomeAssistantDiscoveryInterface)
		if !ok {
			continue
		}
		configs, err := provider.GetHomeAssistantEntities()
		if err != nil {
			return fmt.Errorf("error getting discovery entities from module '%s': %w", name, err)
		}
		c.discovery.AddConfigs(configs)
	}
	if err := c.discovery.PublishDiscoveryMessages(); err != nil {
		return fmt.Errorf("error publishing discovery messages: %w", err)
	}
	return nil
}

func (c *Controller) Stop() error {
	log.Info().Msg("Stopping controller.")

	if err := c.coordinator.Stop(); err != nil {
		return fmt.Errorf("error stopping coordinator: %w", err)
	}

	for name, module := range c.modules {
		log.Info().Str("module", name).Msg("Stopping module.")
		if err := module.Stop(); err != nil {
			return fmt.Errorf("error stopping module '%s': %w", name, err)
		}
	}

	if err := c.mqttClient.Disconnect(); err != nil {
		return fmt.Errorf("error disconnecting from MQTT client: %w", err)
	}
	if err := c.deviceClient.Disconnect(); err != nil {
		return fmt.Errorf("error disconnecting from LIFAair device: %w", err)
	}

	return nil
}

// MqttClient exposes the MQTT client for health checking.
func (c *Controller) MqttClient() mqtt.Client {
	return c.mqttClient
}

// DeviceClient exposes the device client for health checking.
func (c *Controller) DeviceClient() lifaair.Client {
	return c.deviceClient
}
