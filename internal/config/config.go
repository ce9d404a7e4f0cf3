// Package config loads the touchlight deployment configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/touchlight/internal/gpio"
	"github.com/sweeney/touchlight/internal/mqtt"
)

// Config represents the daemon configuration.
type Config struct {
	GPIO GPIOConfig `yaml:"gpio"`
	MQTT MQTTConfig `yaml:"mqtt"`
	HTTP HTTPConfig `yaml:"http"`
}

// GPIOConfig selects the pad and LED lines.
type GPIOConfig struct {
	Chip             string        `yaml:"chip"`
	PadPin           int           `yaml:"pad_pin"`
	LEDPin           int           `yaml:"led_pin"`
	LEDToggle        time.Duration `yaml:"led_toggle"`         // 0 drives the LED steady
	HalfCycleTimeout time.Duration `yaml:"half_cycle_timeout"` // max wait for one pad edge
}

// MQTTConfig contains broker settings.
type MQTTConfig struct {
	Broker     string        `yaml:"broker"`
	WSBroker   string        `yaml:"ws_broker"` // "=broker" derives from broker, "off" disables
	ClientID   string        `yaml:"client_id"`
	Heartbeat  time.Duration `yaml:"heartbeat"` // 0 disables
	BufferSize int           `yaml:"buffer_size"`
}

// HTTPConfig contains the status server address.
type HTTPConfig struct {
	Addr string `yaml:"addr"` // empty disables
}

// Default returns a default configuration.
func Default() *Config {
	return &Config{
		GPIO: GPIOConfig{
			Chip:             gpio.DefaultChip,
			PadPin:           gpio.DefaultPinPad,
			LEDPin:           gpio.DefaultPinLED,
			HalfCycleTimeout: gpio.DefaultHalfCycleTimeout,
		},
		MQTT: MQTTConfig{
			Broker:     "tcp://192.168.1.200:1883",
			WSBroker:   "=broker",
			ClientID:   "touchlight",
			Heartbeat:  15 * time.Minute,
			BufferSize: mqtt.DefaultBufferSize,
		},
		HTTP: HTTPConfig{
			Addr: ":80",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; fields absent from the file keep their default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", filename, err)
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// ensureDefaults fills fields that an explicit empty value in the file
// would otherwise leave unusable.
func (c *Config) ensureDefaults() {
	d := Default()

	if c.GPIO.Chip == "" {
		c.GPIO.Chip = d.GPIO.Chip
	}
	if c.GPIO.HalfCycleTimeout <= 0 {
		c.GPIO.HalfCycleTimeout = d.GPIO.HalfCycleTimeout
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = d.MQTT.ClientID
	}
	if c.MQTT.BufferSize <= 0 {
		c.MQTT.BufferSize = d.MQTT.BufferSize
	}
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	if c.GPIO.PadPin < 0 {
		return fmt.Errorf("gpio.pad_pin: must not be negative, got %d", c.GPIO.PadPin)
	}
	if c.GPIO.LEDPin < 0 {
		return fmt.Errorf("gpio.led_pin: must not be negative, got %d", c.GPIO.LEDPin)
	}
	if c.GPIO.PadPin == c.GPIO.LEDPin {
		return fmt.Errorf("gpio: pad and led share line %d", c.GPIO.PadPin)
	}
	if c.GPIO.LEDToggle < 0 {
		return fmt.Errorf("gpio.led_toggle: must not be negative, got %v", c.GPIO.LEDToggle)
	}
	if c.MQTT.Broker == "" {
		return errors.New("mqtt.broker: required")
	}
	if c.MQTT.Heartbeat < 0 {
		return fmt.Errorf("mqtt.heartbeat: must not be negative, got %v", c.MQTT.Heartbeat)
	}
	return nil
}
