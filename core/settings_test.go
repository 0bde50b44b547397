package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSettingsValidate(t *testing.T) {
	settings := DefaultSettings()
	assert.NoError(t, settings.validate())
}

func TestSettingsNegativeTTL(t *testing.T) {
	settings := DefaultSettings()
	settings.TTL = -1
	assert.Error(t, settings.validate())
}

func TestSettingsZeroTTL(t *testing.T) {
	settings := DefaultSettings()
	settings.TTL = 0
	assert.Error(t, settings.validate())
}

func TestSettingsTTLTooLarge(t *testing.T) {
	settings := DefaultSettings()
	settings.TTL = 256
	assert.Error(t, settings.validate())
}

func TestSettingsPositiveTTL(t *testing.T) {
	settings := DefaultSettings()
	settings.TTL = 1
	assert.NoError(t, settings.validate())
}

func TestSettingsNegativeInterval(t *testing.T) {
	settings := DefaultSettings()
	settings.Interval = -1
	assert.Error(t, settings.validate())
}

func TestSettingsZeroInterval(t *testing.T) {
	settings := DefaultSettings()
	settings.Interval = 0
	assert.Error(t, settings.validate())
}

func TestSettingsSubSecondInterval(t *testing.T) {
	settings := DefaultSettings()
	settings.Interval = 0.2
	assert.NoError(t, settings.validate())
}

func TestSettingsHugeInterval(t *testing.T) {
	settings := DefaultSettings()
	settings.Interval = float64(time.Hour*24) / float64(time.Second)
	assert.Error(t, settings.validate())
}

func TestSettingsIntervalDuration(t *testing.T) {
	settings := DefaultSettings()
	settings.Interval = 0.5
	assert.Equal(t, 500*time.Millisecond, settings.interval())
}

func TestSettingsDeadlineDuration(t *testing.T) {
	settings := DefaultSettings()
	settings.Deadline = 3
	assert.Equal(t, 3*time.Second, settings.deadline())
	assert.True(t, settings.isDeadlineActive())
}

func TestSettingsDeadlineInactiveByDefault(t *testing.T) {
	settings := DefaultSettings()
	assert.False(t, settings.isDeadlineActive())
}

func TestSettingsMaxCountInactiveByDefault(t *testing.T) {
	settings := DefaultSettings()
	assert.False(t, settings.isMaxCountActive())
}

func TestSettingsMaxCountActive(t *testing.T) {
	settings := DefaultSettings()
	settings.MaxCount = 5
	assert.True(t, settings.isMaxCountActive())
}
