package lifaair

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotificationSubscribeRejectsDuplicateId(t *testing.T) {
	c := NewClient(NewClientOptions())

	assert.NoError(t, c.NotificationSubscribe("listener", func(state DeviceState) {}))
	assert.Error(t, c.NotificationSubscribe("listener", func(state DeviceState) {}))
	assert.NoError(t, c.NotificationUnsubscribe("listener"))
	assert.Error(t, c.NotificationUnsubscribe("listener"))
}

// The websocket reader fans notifications out while subscribers register and
// deregister from other goroutines. Run both sides concurrently so the race
// detector can catch unguarded access to the callback map.
func TestNotificationFanOutDuringSubscriptionChanges(t *testing.T) {
	c := NewClient(NewClientOptions()).(*client)

	var received sync.Map
	assert.NoError(t, c.NotificationSubscribe("keeper", func(state DeviceState) {
		received.Store("keeper", state)
	}))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			id := "listener-" + strconv.Itoa(i)
			assert.NoError(t, c.NotificationSubscribe(id, func(state DeviceState) {}))
			assert.NoError(t, c.NotificationUnsubscribe(id))
		}
	}()
	go func() {
		defer wg.Done()
		speed := 42
		for i := 0; i < 200; i++ {
			c.notifyCallbacks(DeviceState{FanSpeed: &speed})
		}
	}()
	wg.Wait()

	state, ok := received.Load("keeper")
	assert.True(t, ok)
	assert.Equal(t, 42, *state.(DeviceState).FanSpeed)
}
