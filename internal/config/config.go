package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/vango-dev/querybind/internal/errors"
)

const (
	// ConfigFileName is the name of the JSON configuration file.
	ConfigFileName = "querybind.json"

	// TOMLConfigFileName is the name of the TOML configuration file.
	TOMLConfigFileName = "querybind.toml"

	// DefaultPort is the default server port.
	DefaultPort = 3000

	// DefaultHost is the default server host.
	DefaultHost = "localhost"

	// DefaultParam is the query parameter bound to the input.
	DefaultParam = "search"

	// DefaultFetchDelay is the latency of the simulated fetch.
	DefaultFetchDelay = 3 * time.Second

	// DefaultShutdownTimeout bounds graceful shutdown.
	DefaultShutdownTimeout = 10 * time.Second

	// DefaultQueueSize is the event loop buffer size.
	DefaultQueueSize = 256

	// DefaultNamespace is the Prometheus namespace.
	DefaultNamespace = "querybind"
)

// Environment overrides applied by Load and LoadFile.
const (
	EnvPort     = "QUERYBIND_PORT"
	EnvLogLevel = "QUERYBIND_LOG_LEVEL"
)

// Config represents the complete querybind configuration.
type Config struct {
	// Server contains HTTP server configuration.
	Server ServerConfig `json:"server" toml:"server"`

	// Fetch contains fetch manager configuration.
	Fetch FetchConfig `json:"fetch" toml:"fetch"`

	// Query contains query binding configuration.
	Query QueryConfig `json:"query" toml:"query"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics" toml:"metrics"`

	// Log contains logging configuration.
	Log LogConfig `json:"log" toml:"log"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `json:"host,omitempty" toml:"host"`
	Port int    `json:"port,omitempty" toml:"port"`

	// ShutdownTimeout is a duration string (e.g., "10s").
	ShutdownTimeout string `json:"shutdownTimeout,omitempty" toml:"shutdown_timeout"`
}

// FetchConfig contains fetch manager settings.
type FetchConfig struct {
	// Delay is the simulated fetch latency as a duration string.
	Delay string `json:"delay,omitempty" toml:"delay"`

	// AbortOnCancel cancels the operation context on cancel or supersede.
	AbortOnCancel bool `json:"abortOnCancel,omitempty" toml:"abort_on_cancel"`

	// QueueSize is the event loop dispatch buffer.
	QueueSize int `json:"queueSize,omitempty" toml:"queue_size"`
}

// QueryConfig contains query binding settings.
type QueryConfig struct {
	// Param is the query parameter bound to the input.
	Param string `json:"param,omitempty" toml:"param"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled" toml:"enabled"`
	Namespace string `json:"namespace,omitempty" toml:"namespace"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" toml:"level"`

	// Format is text or json.
	Format string `json:"format,omitempty" toml:"format"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            DefaultHost,
			Port:            DefaultPort,
			ShutdownTimeout: DefaultShutdownTimeout.String(),
		},
		Fetch: FetchConfig{
			Delay:     DefaultFetchDelay.String(),
			QueueSize: DefaultQueueSize,
		},
		Query: QueryConfig{
			Param: DefaultParam,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultNamespace,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for querybind.json first, then querybind.toml.
func Load(dir string) (*Config, error) {
	for _, name := range []string{ConfigFileName, TOMLConfigFileName} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("Q100").
		WithDetail("No " + ConfigFileName + " or " + TOMLConfigFileName + " found in " + dir).
		WithSuggestion("Run 'querybind config init' to create one")
}

// LoadOrDefault behaves like Load but returns defaults when no file exists.
func LoadOrDefault(dir string) (*Config, error) {
	cfg, err := Load(dir)
	if errors.HasCode(err, "Q100") {
		cfg = New()
		cfg.applyEnv()
		return cfg, cfg.Validate()
	}
	return cfg, err
}

// LoadFile reads configuration from the specified file path. The format is
// chosen by extension: .toml is TOML, anything else JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("Q100").
				WithDetail("No configuration found at " + path)
		}
		return nil, errors.New("Q102").Wrap(err)
	}

	cfg := New()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("Q102").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check the file syntax")
	}

	cfg.configPath = path
	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveTo writes the configuration as JSON to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("Q102").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("Q102").Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout.String()
	}
	if c.Fetch.Delay == "" {
		c.Fetch.Delay = DefaultFetchDelay.String()
	}
	if c.Fetch.QueueSize == 0 {
		c.Fetch.QueueSize = DefaultQueueSize
	}
	if c.Query.Param == "" {
		c.Query.Param = DefaultParam
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.New("Q101").
			WithDetail(fmt.Sprintf("server.port %d is out of range", c.Server.Port)).
			WithSuggestion("Use a port between 1 and 65535")
	}
	if _, err := time.ParseDuration(c.Server.ShutdownTimeout); err != nil {
		return errors.New("Q101").
			WithDetail("server.shutdownTimeout is not a duration").
			Wrap(err)
	}
	if d, err := time.ParseDuration(c.Fetch.Delay); err != nil || d < 0 {
		return errors.New("Q101").
			WithDetail("fetch.delay must be a non-negative duration such as \"3s\"")
	}
	if c.Fetch.QueueSize < 0 {
		return errors.New("Q101").
			WithDetail("fetch.queueSize must not be negative")
	}
	if c.Query.Param == "" || strings.ContainsAny(c.Query.Param, "&=?") {
		return errors.New("Q101").
			WithDetail(fmt.Sprintf("query.param %q is not a valid parameter name", c.Query.Param))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("Q101").
			WithDetail(fmt.Sprintf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.New("Q101").
			WithDetail(fmt.Sprintf("log.format %q is not one of text, json", c.Log.Format))
	}
	return nil
}

// Address returns the host:port the server listens on.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// FetchDelay returns the parsed fetch delay.
func (c *Config) FetchDelay() time.Duration {
	d, err := time.ParseDuration(c.Fetch.Delay)
	if err != nil {
		return DefaultFetchDelay
	}
	return d
}

// ShutdownTimeout returns the parsed shutdown timeout.
func (c *Config) ShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil {
		return DefaultShutdownTimeout
	}
	return d
}
