package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "touchlight.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotNil(t, cfg)
	assert.Equal(t, "gpiochip0", cfg.GPIO.Chip)
	assert.Equal(t, 17, cfg.GPIO.PadPin)
	assert.Equal(t, 18, cfg.GPIO.LEDPin)
	assert.Equal(t, time.Duration(0), cfg.GPIO.LEDToggle)
	assert.Equal(t, 5*time.Millisecond, cfg.GPIO.HalfCycleTimeout)
	assert.Equal(t, "tcp://192.168.1.200:1883", cfg.MQTT.Broker)
	assert.Equal(t, "=broker", cfg.MQTT.WSBroker)
	assert.Equal(t, "touchlight", cfg.MQTT.ClientID)
	assert.Equal(t, 15*time.Minute, cfg.MQTT.Heartbeat)
	assert.Equal(t, 100, cfg.MQTT.BufferSize)
	assert.Equal(t, ":80", cfg.HTTP.Addr)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ValidYAML(t *testing.T) {
	path := writeConfig(t, `
gpio:
  chip: gpiochip4
  pad_pin: 5
  led_pin: 6
  led_toggle: 10us
  half_cycle_timeout: 2ms

mqtt:
  broker: tcp://broker.local:1883
  ws_broker: "off"
  client_id: hallway-light
  heartbeat: 1m
  buffer_size: 20

http:
  addr: ":8080"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gpiochip4", cfg.GPIO.Chip)
	assert.Equal(t, 5, cfg.GPIO.PadPin)
	assert.Equal(t, 6, cfg.GPIO.LEDPin)
	assert.Equal(t, 10*time.Microsecond, cfg.GPIO.LEDToggle)
	assert.Equal(t, 2*time.Millisecond, cfg.GPIO.HalfCycleTimeout)
	assert.Equal(t, "tcp://broker.local:1883", cfg.MQTT.Broker)
	assert.Equal(t, "off", cfg.MQTT.WSBroker)
	assert.Equal(t, "hallway-light", cfg.MQTT.ClientID)
	assert.Equal(t, time.Minute, cfg.MQTT.Heartbeat)
	assert.Equal(t, 20, cfg.MQTT.BufferSize)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
}

func TestLoad_PartialYAMLKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
mqtt:
  broker: tcp://10.0.0.2:1883
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tcp://10.0.0.2:1883", cfg.MQTT.Broker)
	assert.Equal(t, "gpiochip0", cfg.GPIO.Chip)
	assert.Equal(t, 17, cfg.GPIO.PadPin)
	assert.Equal(t, 15*time.Minute, cfg.MQTT.Heartbeat)
	assert.Equal(t, ":80", cfg.HTTP.Addr)
}

func TestLoad_EmptyValuesRestored(t *testing.T) {
	path := writeConfig(t, `
gpio:
  chip: ""
  half_cycle_timeout: 0s
mqtt:
  client_id: ""
  buffer_size: 0
http:
  addr: ""
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gpiochip0", cfg.GPIO.Chip)
	assert.Equal(t, 5*time.Millisecond, cfg.GPIO.HalfCycleTimeout)
	assert.Equal(t, "touchlight", cfg.MQTT.ClientID)
	assert.Equal(t, 100, cfg.MQTT.BufferSize)
	// An empty HTTP address disables the status server and is kept.
	assert.Equal(t, "", cfg.HTTP.Addr)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "gpio: [unterminated")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	path := writeConfig(t, `
gpio:
  pad_pin: 18
  led_pin: 18
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "share line 18")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"negative pad", func(c *Config) { c.GPIO.PadPin = -1 }, "gpio.pad_pin"},
		{"negative led", func(c *Config) { c.GPIO.LEDPin = -1 }, "gpio.led_pin"},
		{"negative toggle", func(c *Config) { c.GPIO.LEDToggle = -time.Microsecond }, "gpio.led_toggle"},
		{"no broker", func(c *Config) { c.MQTT.Broker = "" }, "mqtt.broker"},
		{"negative heartbeat", func(c *Config) { c.MQTT.Heartbeat = -time.Second }, "mqtt.heartbeat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")

	cfg := Default()
	cfg.GPIO.PadPin = 22
	cfg.GPIO.LEDToggle = 5 * time.Microsecond
	cfg.MQTT.Heartbeat = 0
	cfg.HTTP.Addr = ":8081"

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
