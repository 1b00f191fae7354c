package lifaair

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type stubClient struct {
	state    *DeviceState
	getError error
}

func (c *stubClient) Connect() error    { return nil }
func (c *stubClient) Disconnect() error { return nil }

func (c *stubClient) GetState() (*DeviceState, error) {
	if c.getError != nil {
		return nil, c.getError
	}
	return c.state, nil
}

func (c *stubClient) SetFanMode(mode FanMode) (*DeviceState, error) {
	return c.state, nil
}

func (c *stubClient) SetFanSpeed(speed int) (*DeviceState, error) {
	return c.state, nil
}

func (c *stubClient) NotificationSubscribe(id string, callback NotificationCallback) error {
	return nil
}

func (c *stubClient) NotificationUnsubscribe(id string) error {
	return nil
}

func fanModePtr(m FanMode) *FanMode { return &m }

func TestSetUpdatedDataFansOutToAllListeners(t *testing.T) {
	coordinator := NewCoordinator(&stubClient{}, time.Minute)

	var first, second []DeviceState
	assert.NoError(t, coordinator.AddListener("first", func(state DeviceState) {
		first = append(first, state)
	}))
	assert.NoError(t, coordinator.AddListener("second", func(state DeviceState) {
		second = append(second, state)
	}))

	coordinator.SetUpdatedData(DeviceState{FanMode: fanModePtr(FanModeAuto)})

	assert.Len(t, first, 1)
	assert.Len(t, second, 1)
	assert.Equal(t, FanModeAuto, *first[0].FanMode)
}

func TestAddListenerRejectsDuplicateId(t *testing.T) {
	coordinator := NewCoordinator(&stubClient{}, time.Minute)
	assert.NoError(t, coordinator.AddListener("fans", func(DeviceState) {}))
	assert.Error(t, coordinator.AddListener("fans", func(DeviceState) {}))
	assert.NoError(t, coordinator.RemoveListener("fans"))
	assert.Error(t, coordinator.RemoveListener("fans"))
}

func TestRefreshFansOutFetchedState(t *testing.T) {
	speed := 42
	client := &stubClient{state: &DeviceState{
		FanMode:  fanModePtr(FanModeManual),
		FanSpeed: &speed,
	}}
	coordinator := NewCoordinator(client, time.Minute)

	var received []DeviceState
	assert.NoError(t, coordinator.AddListener("test", func(state DeviceState) {
		received = append(received, state)
	}))

	assert.NoError(t, coordinator.Refresh())
	assert.Len(t, received, 1)
	assert.Equal(t, FanModeManual, *received[0].FanMode)
	assert.Equal(t, 42, *received[0].FanSpeed)
}

func TestRefreshReportsEmptySnapshotOnError(t *testing.T) {
	client := &stubClient{getError: errors.New("connection refused")}
	coordinator := NewCoordinator(client, time.Minute)

	var received []DeviceState
	assert.NoError(t, coordinator.AddListener("test", func(state DeviceState) {
		received = append(received, state)
	}))

	assert.Error(t, coordinator.Refresh())
	// Listeners still get a snapshot so they can mark entities unavailable.
	assert.Len(t, received, 1)
	assert.Nil(t, received[0].FanMode)
}
