package lifaair

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentageToSpeedStaysInDeviceRange(t *testing.T) {
	for p := 0; p <= 100; p++ {
		speed := PercentageToSpeed(p)
		if speed < 0 || speed > MaxFanSpeed {
			t.Errorf("percentage %d converted to speed %d outside of [0,%d]", p, speed, MaxFanSpeed)
		}
	}
	assert.Equal(t, 0, PercentageToSpeed(0))
	assert.Equal(t, MaxFanSpeed, PercentageToSpeed(100))
	assert.Equal(t, 61, PercentageToSpeed(50))
}

func TestSpeedToPercentageStaysInPercentageRange(t *testing.T) {
	for s := 0; s <= MaxFanSpeed; s++ {
		p := SpeedToPercentage(s)
		if p < 0 || p > 100 {
			t.Errorf("speed %d converted to percentage %d outside of [0,100]", s, p)
		}
	}
	assert.Equal(t, 0, SpeedToPercentage(0))
	assert.Equal(t, 100, SpeedToPercentage(MaxFanSpeed))
}

func TestSpeedConversionIsLossy(t *testing.T) {
	// 121 speed steps squeezed into 100 percent steps cannot round trip
	// exactly for every value.
	lossy := false
	for s := 0; s <= MaxFanSpeed; s++ {
		if PercentageToSpeed(SpeedToPercentage(s)) != s {
			lossy = true
			break
		}
	}
	assert.True(t, lossy, "expected at least one speed value not to round trip")
}

func TestFanModeFromName(t *testing.T) {
	mode, err := FanModeFromName("auto")
	assert.NoError(t, err)
	assert.Equal(t, FanModeAuto, mode)

	mode, err = FanModeFromName("MANUAL")
	assert.NoError(t, err)
	assert.Equal(t, FanModeManual, mode)

	_, err = FanModeFromName("turbo")
	assert.Error(t, err)

	// OFF and UNKNOWN are not selectable presets.
	_, err = FanModeFromName("off")
	assert.Error(t, err)
	_, err = FanModeFromName("unknown")
	assert.Error(t, err)
}

func TestFanModeNames(t *testing.T) {
	assert.Equal(t, []string{"auto", "night", "manual"}, FanModeNames())
}
