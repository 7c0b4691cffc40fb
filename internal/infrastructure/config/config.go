package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ApplianceTypeIRTV marks a configured appliance as an infrared television.
const ApplianceTypeIRTV = "irtv"

// DefaultRefreshRate is the polling period, in seconds, used when a refresh
// rate is not configured.
const DefaultRefreshRate = 300

// Config is the root configuration structure for the Remo bridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Token                 string            `yaml:"token"`
	DevicesRefreshRate    int               `yaml:"devices_refresh_rate"`
	AppliancesRefreshRate int               `yaml:"appliances_refresh_rate"`
	Appliances            []ApplianceConfig `yaml:"appliances"`
	Fixture               bool              `yaml:"fixture"`

	Remo     RemoConfig     `yaml:"remo"`
	HomeKit  HomeKitConfig  `yaml:"homekit"`
	Database DatabaseConfig `yaml:"database"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	API      APIConfig      `yaml:"api"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ApplianceConfig selects an infrared appliance by nickname and maps the
// television functions onto its learned signal names.
type ApplianceConfig struct {
	Name    string            `yaml:"name"`
	Type    string            `yaml:"type"`
	Mapping map[string]string `yaml:"mapping"`
}

// RemoConfig contains Nature Remo cloud API settings.
type RemoConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout int    `yaml:"timeout"`
}

// HomeKitConfig contains HAP bridge settings.
type HomeKitConfig struct {
	Name        string `yaml:"name"`
	Pin         string `yaml:"pin"`
	Port        int    `yaml:"port"`
	StoragePath string `yaml:"storage_path"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains the status HTTP server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: REMOBRIDGE_SECTION_KEY
// For example: REMOBRIDGE_TOKEN, REMOBRIDGE_DATABASE_PATH
//
// An empty path skips the file and builds the configuration from defaults
// and environment only.
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
		if err := applyCamelCaseRates(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// refreshRateKeys reads both spellings of the refresh rates. Configs from
// the Homebridge plugin use camelCase.
type refreshRateKeys struct {
	Devices         *int `yaml:"devices_refresh_rate"`
	Appliances      *int `yaml:"appliances_refresh_rate"`
	DevicesCamel    *int `yaml:"devicesRefreshRate"`
	AppliancesCamel *int `yaml:"appliancesRefreshRate"`
}

// applyCamelCaseRates copies devicesRefreshRate and appliancesRefreshRate
// into cfg unless the snake_case key is also present.
func applyCamelCaseRates(data []byte, cfg *Config) error {
	var keys refreshRateKeys
	if err := yaml.Unmarshal(data, &keys); err != nil {
		return err
	}
	if keys.Devices == nil && keys.DevicesCamel != nil {
		cfg.DevicesRefreshRate = *keys.DevicesCamel
	}
	if keys.Appliances == nil && keys.AppliancesCamel != nil {
		cfg.AppliancesRefreshRate = *keys.AppliancesCamel
	}
	return nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		DevicesRefreshRate:    DefaultRefreshRate,
		AppliancesRefreshRate: DefaultRefreshRate,
		Remo: RemoConfig{
			BaseURL: "https://api.nature.global/1",
			Timeout: 10,
		},
		HomeKit: HomeKitConfig{
			Name:        "Remo Bridge",
			Pin:         "03145154",
			StoragePath: "./data/hap",
		},
		Database: DatabaseConfig{
			Path:        "./data/remobridge.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "remobridge",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		InfluxDB: InfluxDBConfig{
			Bucket:        "remo",
			BatchSize:     100,
			FlushInterval: 10,
		},
		API: APIConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: REMOBRIDGE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("REMOBRIDGE_TOKEN"); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv("REMOBRIDGE_DEVICES_REFRESH_RATE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DevicesRefreshRate = n
		}
	}
	if v := os.Getenv("REMOBRIDGE_APPLIANCES_REFRESH_RATE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.AppliancesRefreshRate = n
		}
	}
	if v := os.Getenv("REMOBRIDGE_FIXTURE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Fixture = b
		}
	}

	// Remo
	if v := os.Getenv("REMOBRIDGE_REMO_BASE_URL"); v != "" {
		cfg.Remo.BaseURL = v
	}

	// HomeKit
	if v := os.Getenv("REMOBRIDGE_HOMEKIT_PIN"); v != "" {
		cfg.HomeKit.Pin = v
	}
	if v := os.Getenv("REMOBRIDGE_HOMEKIT_STORAGE_PATH"); v != "" {
		cfg.HomeKit.StoragePath = v
	}

	// Database
	if v := os.Getenv("REMOBRIDGE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("REMOBRIDGE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("REMOBRIDGE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("REMOBRIDGE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("REMOBRIDGE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// API
	if v := os.Getenv("REMOBRIDGE_API_HOST"); v != "" {
		cfg.API.Host = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Token == "" && !c.Fixture {
		errs = append(errs, "token is required (set REMOBRIDGE_TOKEN environment variable)")
	}
	if c.DevicesRefreshRate < 1 {
		errs = append(errs, "devices_refresh_rate must be at least 1 second")
	}
	if c.AppliancesRefreshRate < 1 {
		errs = append(errs, "appliances_refresh_rate must be at least 1 second")
	}

	seen := make(map[string]struct{}, len(c.Appliances))
	for i, a := range c.Appliances {
		if a.Name == "" {
			errs = append(errs, fmt.Sprintf("appliances[%d].name is required", i))
		}
		if a.Type != ApplianceTypeIRTV {
			errs = append(errs, fmt.Sprintf("appliances[%d].type %q is not supported (want %q)", i, a.Type, ApplianceTypeIRTV))
		}
		if _, dup := seen[a.Name]; dup && a.Name != "" {
			errs = append(errs, fmt.Sprintf("appliances[%d].name %q is duplicated", i, a.Name))
		}
		seen[a.Name] = struct{}{}
	}

	if c.Remo.BaseURL == "" {
		errs = append(errs, "remo.base_url is required")
	}

	// HAP setup codes are eight digits.
	if len(c.HomeKit.Pin) != 8 || strings.Trim(c.HomeKit.Pin, "0123456789") != "" {
		errs = append(errs, "homekit.pin must be exactly 8 digits")
	}
	if c.HomeKit.Port < 0 || c.HomeKit.Port > 65535 {
		errs = append(errs, "homekit.port must be between 0 and 65535")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.Enabled && (c.MQTT.QoS < 0 || c.MQTT.QoS > 2) {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// TVs returns the appliances configured as infrared televisions.
func (c *Config) TVs() []ApplianceConfig {
	var out []ApplianceConfig
	for _, a := range c.Appliances {
		if a.Type == ApplianceTypeIRTV {
			out = append(out, a)
		}
	}
	return out
}

// DevicesInterval returns the device polling period as a Duration.
func (c *Config) DevicesInterval() time.Duration {
	return time.Duration(c.DevicesRefreshRate) * time.Second
}

// AppliancesInterval returns the appliance polling period as a Duration.
func (c *Config) AppliancesInterval() time.Duration {
	return time.Duration(c.AppliancesRefreshRate) * time.Second
}

// RemoTimeout returns the per-request vendor API timeout as a Duration.
func (c *Config) RemoTimeout() time.Duration {
	return time.Duration(c.Remo.Timeout) * time.Second
}
