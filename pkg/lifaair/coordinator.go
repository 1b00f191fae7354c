package lifaair

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const notificationSubscriptionId = "coordinator"

// StateListener receives every state snapshot the coordinator sees, whether
// it came from a poll, a websocket push or a set-call response.
type StateListener func(state DeviceState)

// Coordinator owns the refresh cycle for a single purifier. It polls the
// device on a fixed interval, listens to pushed notifications and fans every
// snapshot out to the registered listeners.
type Coordinator interface {
	Start() error
	Stop() error

	// AddListener registers a listener under the given id.
	AddListener(id string, listener StateListener) error
	// RemoveListener removes a previously registered listener.
	RemoveListener(id string) error

	// Refresh fetches the current state from the device and fans it out.
	Refresh() error
	// SetUpdatedData feeds an externally obtained snapshot into the
	// coordinator, bypassing the poll cycle.
	SetUpdatedData(state DeviceState)
}

type coordinator struct {
	client   Client
	interval time.Duration

	listeners     map[string]StateListener
	listenerMutex sync.Mutex

	ticker     *time.Ticker
	tickerDone chan struct{}
}

// NewCoordinator creates a coordinator polling the given client on the given
// interval.
func NewCoordinator(client Client, interval time.Duration) Coordinator {
	return &coordinator{
		client:    client,
		interval:  interval,
		listeners: map[string]StateListener{},
	}
}

func (c *coordinator) Start() error {
	if err := c.client.NotificationSubscribe(notificationSubscriptionId, func(state DeviceState) {
		c.SetUpdatedData(state)
	}); err != nil {
		return fmt.Errorf("error subscribing to device notifications: %w", err)
	}

	c.ticker = time.NewTicker(c.interval)
	c.tickerDone = make(chan struct{})
	go func() {
		for {
			select {
			case <-c.tickerDone:
				return
			case <-c.ticker.C:
				if err := c.Refresh(); err != nil {
					log.Error().Err(err).Msg("Error refreshing device state")
				}
			}
		}
	}()
	return nil
}

func (c *coordinator) Stop() error {
	if c.ticker == nil {
		return nil
	}
	c.ticker.Stop()
	c.tickerDone <- struct{}{}
	c.ticker = nil
	return c.client.NotificationUnsubscribe(notificationSubscriptionId)
}

func (c *coordinator) AddListener(id string, listener StateListener) error {
	c.listenerMutex.Lock()
	defer c.listenerMutex.Unlock()
	if _, exists := c.listeners[id]; exists {
		return errors.New("listener with id " + id + " already exists")
	}
	c.listeners[id] = listener
	return nil
}

func (c *coordinator) RemoveListener(id string) error {
	c.listenerMutex.Lock()
	defer c.listenerMutex.Unlock()
	if _, exists := c.listeners[id]; !exists {
		return errors.New("listener with id " + id + " does not exist")
	}
	delete(c.listeners, id)
	return nil
}

func (c *coordinator) Refresh() error {
	state, err := c.client.GetState()
	if err != nil {
		// An unreachable device is reported as a snapshot without any field
		// so that listeners can mark their entities unavailable.
		c.SetUpdatedData(DeviceState{})
		return fmt.Errorf("error fetching device state: %w", err)
	}
	c.SetUpdatedData(*state)
	return nil
}

func (c *coordinator) SetUpdatedData(state DeviceState) {
	c.listenerMutex.Lock()
	listeners := make([]StateListener, 0, len(c.listeners))
	for _, listener := range c.listeners {
		listeners = append(listeners, listener)
	}
	c.listenerMutex.Unlock()

	log.Trace().Interface("state", state).Msg("Fanning out device state")
	for _, listener := range listeners {
		listener(state)
	}
}
