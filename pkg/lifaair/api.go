package lifaair

import (
	"fmt"
	"math"
	"strings"
)

// FanMode is the operating mode the purifier reports and accepts.
type FanMode string

const (
	FanModeUnknown FanMode = "unknown"
	FanModeOff     FanMode = "off"
	FanModeAuto    FanMode = "auto"
	FanModeNight   FanMode = "night"
	FanModeManual  FanMode = "manual"
)

// Modes that can be requested by name. OFF and UNKNOWN are excluded: the
// former is reached through an explicit turn off and the latter is only ever
// reported by the device.
var selectableFanModes = []FanMode{FanModeAuto, FanModeNight, FanModeManual}

// Name returns the preset name under which the mode is exposed.
func (m FanMode) Name() string {
	return string(m)
}

// FanModeFromName resolves a preset name into a FanMode. The lookup is case
// insensitive and only accepts selectable modes.
func FanModeFromName(name string) (FanMode, error) {
	mode := FanMode(strings.ToLower(name))
	for _, m := range selectableFanModes {
		if m == mode {
			return m, nil
		}
	}
	return FanModeUnknown, fmt.Errorf("unknown fan mode '%s'", name)
}

// FanModeNames returns the preset names for all selectable modes.
func FanModeNames() []string {
	names := make([]string, len(selectableFanModes))
	for i, m := range selectableFanModes {
		names[i] = m.Name()
	}
	return names
}

// MaxFanSpeed is the highest speed step the purifier accepts.
const MaxFanSpeed = 121

// PercentageToSpeed converts a 0-100 percentage into the 0-121 device speed
// scale. The mapping is linear and lossy in both directions.
func PercentageToSpeed(percentage int) int {
	return int(math.Round(MaxFanSpeed * float64(percentage) / 100))
}

// SpeedToPercentage converts a 0-121 device speed into a 0-100 percentage.
func SpeedToPercentage(speed int) int {
	return int(math.Round(100 * float64(speed) / MaxFanSpeed))
}

// DeviceState is a snapshot of the purifier as returned by the device API and
// pushed over the notification stream. Fields are pointers because the device
// omits the ones it cannot measure at that moment; a missing fan_mode means
// the monitor has lost contact with the fan unit.
type DeviceState struct {
	FanMode     *FanMode `mapstructure:"fan_mode" json:"fan_mode,omitempty"`
	FanSpeed    *int     `mapstructure:"fan_speed" json:"fan_speed,omitempty"`
	Pm25        *int     `mapstructure:"pm25" json:"pm25,omitempty"`
	Co2         *int     `mapstructure:"co2" json:"co2,omitempty"`
	Temperature *float64 `mapstructure:"temperature" json:"temperature,omitempty"`
	Humidity    *float64 `mapstructure:"humidity" json:"humidity,omitempty"`
}

// Payload for the fan mode endpoint.
type SetFanModeRequest struct {
	FanMode FanMode `json:"fan_mode"`
}

// Payload for the fan speed endpoint.
type SetFanSpeedRequest struct {
	FanSpeed int `json:"fan_speed"`
}

// First message sent over the notification websocket to initiate the stream.
type WebsocketInitMessage struct {
	Protocol string `json:"protocol"`
	Version  int    `json:"version"`
}

// WebsocketNotification wraps a state snapshot pushed by the device.
type WebsocketNotification struct {
	Target    string                 `json:"target"`
	Arguments []map[string]interface{} `json:"arguments"`
}
