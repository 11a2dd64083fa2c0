package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the host-side configuration shared by potsim, potbridge and skyview.
type Config struct {
	Serial  SerialConfig  `yaml:"serial"`
	Sampler SamplerConfig `yaml:"sampler"`
	Relay   RelayConfig   `yaml:"relay"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Metrics MetricsConfig `yaml:"metrics"`
	Sky     SkyConfig     `yaml:"sky"`
	Mock    MockConfig    `yaml:"mock"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
	Buffer   int    `yaml:"buffer"` // Readings channel size
}

// SamplerConfig configures the host-side sampler (potsim).
type SamplerConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// RelayConfig contains UDP relay addresses.
type RelayConfig struct {
	Listen string `yaml:"listen"` // skyview bind address
	Target string `yaml:"target"` // potbridge destination, empty = disabled
}

// MQTTConfig contains MQTT publisher configuration.
type MQTTConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Broker   string        `yaml:"broker"`
	ClientID string        `yaml:"client_id"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Topic    string        `yaml:"topic"`
	QoS      byte          `yaml:"qos"`
	Retries  int           `yaml:"retries"` // Connection attempts before giving up
	Timeout  time.Duration `yaml:"timeout"` // Publish acknowledgement timeout
}

// MetricsConfig contains Prometheus endpoint configuration.
type MetricsConfig struct {
	Listen string `yaml:"listen"` // empty = disabled
}

// SkyConfig contains sky scroller parameters.
type SkyConfig struct {
	MinValue uint16  `yaml:"min_value"`
	MaxValue uint16  `yaml:"max_value"`
	DeadZone uint16  `yaml:"dead_zone"`
	Speed    float32 `yaml:"speed"`    // Pixels per frame at MinValue/MaxValue
	Saturate bool    `yaml:"saturate"` // Cap the speed past MinValue/MaxValue
	Width    int     `yaml:"width"`    // Star map width in pixels
	Height   int     `yaml:"height"`   // Star map height in pixels
	Stars    int     `yaml:"stars"`
	Seed     int64   `yaml:"seed"`
}

// MockConfig contains mock device configuration.
type MockConfig struct {
	Period     time.Duration `yaml:"period"`      // One full sweep of the knob
	NoiseLevel float64       `yaml:"noise_level"` // Noise amplitude in ADC counts
	SampleRate time.Duration `yaml:"sample_rate"` // Sample rate
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "/dev/ttyUSB0",
			BaudRate: 115200,
			Buffer:   100,
		},
		Sampler: SamplerConfig{
			Interval: 100 * time.Millisecond,
		},
		Relay: RelayConfig{
			Listen: "0.0.0.0:5656",
			Target: "127.0.0.1:5656",
		},
		MQTT: MQTTConfig{
			Enabled:  false,
			Broker:   "tcp://localhost:1883",
			ClientID: "sailpot-bridge",
			Topic:    "sailpot/potentiometer",
			QoS:      0,
			Retries:  5,
			Timeout:  2 * time.Second,
		},
		Sky: SkyConfig{
			MinValue: 2000,
			MaxValue: 33400,
			DeadZone: 3000,
			Speed:    2.5,
			Width:    4096,
			Height:   1024,
			Stars:    2500,
			Seed:     1,
		},
		Mock: MockConfig{
			Period:     20 * time.Second,
			NoiseLevel: 64,
			SampleRate: 100 * time.Millisecond,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
// Addresses are left alone: an explicit empty string disables that output.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}
	if c.Serial.Buffer <= 0 {
		c.Serial.Buffer = def.Serial.Buffer
	}

	if c.Sampler.Interval <= 0 {
		c.Sampler.Interval = def.Sampler.Interval
	}

	if c.MQTT.Broker == "" {
		c.MQTT.Broker = def.MQTT.Broker
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = def.MQTT.ClientID
	}
	if c.MQTT.Topic == "" {
		c.MQTT.Topic = def.MQTT.Topic
	}
	if c.MQTT.QoS > 2 {
		c.MQTT.QoS = def.MQTT.QoS
	}
	if c.MQTT.Retries <= 0 {
		c.MQTT.Retries = def.MQTT.Retries
	}
	if c.MQTT.Timeout <= 0 {
		c.MQTT.Timeout = def.MQTT.Timeout
	}

	if c.Sky.MaxValue == 0 {
		c.Sky.MaxValue = def.Sky.MaxValue
	}
	if c.Sky.MinValue == 0 || c.Sky.MinValue >= c.Sky.MaxValue {
		c.Sky.MinValue = def.Sky.MinValue
	}
	if c.Sky.DeadZone == 0 {
		c.Sky.DeadZone = def.Sky.DeadZone
	}
	if c.Sky.Speed == 0 {
		c.Sky.Speed = def.Sky.Speed
	}
	if c.Sky.Width <= 0 {
		c.Sky.Width = def.Sky.Width
	}
	if c.Sky.Height <= 0 {
		c.Sky.Height = def.Sky.Height
	}
	if c.Sky.Stars <= 0 {
		c.Sky.Stars = def.Sky.Stars
	}

	if c.Mock.SampleRate <= 0 {
		c.Mock.SampleRate = def.Mock.SampleRate
	}
	if c.Mock.Period <= 0 {
		c.Mock.Period = def.Mock.Period
	}
}
