package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration of knxgraph.
// Values come from defaults, then the YAML file, then KNXGRAPH_* variables.
type Config struct {
	Import   ImportConfig   `yaml:"import"`
	Database DatabaseConfig `yaml:"database"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ImportConfig controls how project archives are parsed.
type ImportConfig struct {
	// Language is the preferred translation language, e.g. "de-DE".
	// Empty uses the untranslated catalog text.
	Language string `yaml:"language"`

	// GroupAddressStyle is "three_level", "two_level", "free" or "project"
	// to use the style recorded in the project.
	GroupAddressStyle string `yaml:"group_address_style"`

	// MaxArchiveMB limits the size of an uploaded archive.
	MaxArchiveMB int `yaml:"max_archive_mb"`

	// MaxUncompressedMB limits the summed uncompressed size of all entries.
	MaxUncompressedMB int `yaml:"max_uncompressed_mb"`

	// OutputFormat is "json" or "cbor".
	OutputFormat string `yaml:"output_format"`
}

// DatabaseConfig contains the import history database settings.
type DatabaseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`

	// RetentionDays removes runs older than this many days. 0 keeps all.
	RetentionDays int `yaml:"retention_days"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled     bool                `yaml:"enabled"`
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	TopicPrefix string              `yaml:"topic_prefix"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
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

// MQTTReconnectConfig contains MQTT reconnection settings, in seconds.
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

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // Path is operator-supplied
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Import: ImportConfig{
			GroupAddressStyle: "three_level",
			MaxArchiveMB:      200,
			MaxUncompressedMB: 600,
			OutputFormat:      "json",
		},
		Database: DatabaseConfig{
			Path:        "./data/knxgraph.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "knxgraph",
			},
			QoS:         1,
			TopicPrefix: "knxgraph",
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		InfluxDB: InfluxDBConfig{
			Org:           "knxgraph",
			Bucket:        "imports",
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// applyEnvOverrides applies KNXGRAPH_SECTION_KEY variables.
func applyEnvOverrides(cfg *Config) error {
	strs := map[string]*string{
		"KNXGRAPH_IMPORT_LANGUAGE":   &cfg.Import.Language,
		"KNXGRAPH_IMPORT_STYLE":      &cfg.Import.GroupAddressStyle,
		"KNXGRAPH_IMPORT_FORMAT":     &cfg.Import.OutputFormat,
		"KNXGRAPH_DATABASE_PATH":     &cfg.Database.Path,
		"KNXGRAPH_MQTT_HOST":         &cfg.MQTT.Broker.Host,
		"KNXGRAPH_MQTT_USERNAME":     &cfg.MQTT.Auth.Username,
		"KNXGRAPH_MQTT_PASSWORD":     &cfg.MQTT.Auth.Password,
		"KNXGRAPH_MQTT_TOPIC_PREFIX": &cfg.MQTT.TopicPrefix,
		"KNXGRAPH_INFLUXDB_URL":      &cfg.InfluxDB.URL,
		"KNXGRAPH_INFLUXDB_TOKEN":    &cfg.InfluxDB.Token,
		"KNXGRAPH_LOG_LEVEL":         &cfg.Logging.Level,
		"KNXGRAPH_LOG_FORMAT":        &cfg.Logging.Format,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"KNXGRAPH_DATABASE_ENABLED": &cfg.Database.Enabled,
		"KNXGRAPH_MQTT_ENABLED":     &cfg.MQTT.Enabled,
		"KNXGRAPH_INFLUXDB_ENABLED": &cfg.InfluxDB.Enabled,
	}
	for key, dst := range bools {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", key, err)
		}
		*dst = b
	}

	if v := os.Getenv("KNXGRAPH_MQTT_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing KNXGRAPH_MQTT_PORT: %w", err)
		}
		cfg.MQTT.Broker.Port = port
	}
	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	switch c.Import.GroupAddressStyle {
	case "three_level", "two_level", "free", "project":
	default:
		errs = append(errs, "import.group_address_style must be three_level, two_level, free or project")
	}
	switch strings.ToLower(c.Import.OutputFormat) {
	case "json", "cbor":
	default:
		errs = append(errs, "import.output_format must be json or cbor")
	}
	if c.Import.MaxArchiveMB <= 0 {
		errs = append(errs, "import.max_archive_mb must be positive")
	}
	if c.Import.MaxUncompressedMB < c.Import.MaxArchiveMB {
		errs = append(errs, "import.max_uncompressed_mb must be at least import.max_archive_mb")
	}

	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required when the database is enabled")
	}
	if c.Database.RetentionDays < 0 {
		errs = append(errs, "database.retention_days must not be negative")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled {
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
		}
		if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
			errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
		}
	}

	if c.InfluxDB.Enabled && (c.InfluxDB.URL == "" || c.InfluxDB.Bucket == "") {
		errs = append(errs, "influxdb.url and influxdb.bucket are required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// MaxArchiveBytes returns Import.MaxArchiveMB in bytes.
func (c *Config) MaxArchiveBytes() int64 {
	return int64(c.Import.MaxArchiveMB) << 20
}

// MaxUncompressedBytes returns Import.MaxUncompressedMB in bytes.
func (c *Config) MaxUncompressedBytes() int64 {
	return int64(c.Import.MaxUncompressedMB) << 20
}

// RetentionPeriod returns Database.RetentionDays as a Duration.
func (c *Config) RetentionPeriod() time.Duration {
	return time.Duration(c.Database.RetentionDays) * 24 * time.Hour
}
