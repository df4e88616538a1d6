package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/vango-dev/batchstore/internal/errors"
	"github.com/vango-dev/batchstore/pkg/channel"
	"github.com/vango-dev/batchstore/pkg/limiter"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "batchstore.json"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "BATCHSTORE_"

	// DefaultPort is the default server port.
	DefaultPort = 8080

	// DefaultHost is the default server host.
	DefaultHost = "localhost"

	// DefaultLoopSize is the default number of pending store calls.
	DefaultLoopSize = 1024
)

// Limiter kinds accepted in ChannelConfig.Kind.
const (
	KindThrottle  = "throttle"
	KindDebounce  = "debounce"
	KindBudget    = "budget"
	KindImmediate = "immediate"
)

// Config represents the complete batchstore.json configuration.
type Config struct {
	// Server contains HTTP server configuration.
	Server ServerConfig `json:"server,omitempty" envPrefix:"SERVER_"`

	// Channels declares the rate-limited channels by name.
	Channels map[string]ChannelConfig `json:"channels,omitempty"`

	// Snapshot contains S3 snapshot configuration.
	Snapshot SnapshotConfig `json:"snapshot,omitempty" envPrefix:"SNAPSHOT_"`

	// Log contains logging configuration.
	Log LogConfig `json:"log,omitempty" envPrefix:"LOG_"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `json:"host,omitempty" env:"HOST"`
	Port int    `json:"port,omitempty" env:"PORT"`

	// LoopSize bounds the store calls waiting to run.
	LoopSize int `json:"loopSize,omitempty" env:"LOOP_SIZE"`

	// ShutdownTimeout bounds graceful shutdown (e.g., "10s").
	ShutdownTimeout Duration `json:"shutdownTimeout,omitempty" env:"SHUTDOWN_TIMEOUT"`
}

// ChannelConfig describes the limiter of one channel. Only the fields of
// the chosen kind are read.
type ChannelConfig struct {
	// Kind is one of throttle, debounce, budget or immediate.
	Kind string `json:"kind"`

	// Interval is the throttle period.
	Interval Duration `json:"interval,omitempty"`

	// Wait is the debounce quiet period.
	Wait Duration `json:"wait,omitempty"`

	// MaxWait bounds how long a debounce may postpone a flush.
	MaxWait Duration `json:"maxWait,omitempty"`

	// Window and Max bound a budget: at most Max flushes per Window.
	Window Duration `json:"window,omitempty"`
	Max    int      `json:"max,omitempty"`
}

// SnapshotConfig contains S3 snapshot settings.
type SnapshotConfig struct {
	Enabled bool   `json:"enabled,omitempty" env:"ENABLED"`
	Bucket  string `json:"bucket,omitempty" env:"BUCKET"`
	Prefix  string `json:"prefix,omitempty" env:"PREFIX"`
	Region  string `json:"region,omitempty" env:"REGION"`

	// Endpoint overrides the S3 endpoint for S3-compatible stores. Setting
	// it switches to path-style addressing.
	Endpoint string `json:"endpoint,omitempty" env:"ENDPOINT"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level,omitempty" env:"LEVEL"`

	// Format is text or json.
	Format string `json:"format,omitempty" env:"FORMAT"`
}

// Duration is a time.Duration written as a string ("300ms", "1m").
type Duration time.Duration

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            DefaultHost,
			Port:            DefaultPort,
			LoopSize:        DefaultLoopSize,
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Channels: map[string]ChannelConfig{},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads batchstore.json from dir. A missing file yields the defaults.
// Environment overrides are applied either way.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(path); err == nil || !os.IsNotExist(err) {
		return LoadFile(path)
	}

	cfg := New()
	if err := cfg.ApplyEnv(nil); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// LoadFile loads the configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E050").
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				WithSuggestion("Create " + ConfigFileName + " or pass --config")
		}
		return nil, errors.New("E050").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E050").
			WithDetail("Failed to parse " + ConfigFileName + ": " + err.Error()).
			WithSuggestion("Check that " + ConfigFileName + " is valid JSON")
	}

	cfg.configPath = path
	if err := cfg.ApplyEnv(nil); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return cfg, nil
}

// ApplyEnv overrides fields from BATCHSTORE_* variables. A nil environment
// reads the process environment.
func (c *Config) ApplyEnv(environment map[string]string) error {
	opts := env.Options{Prefix: EnvPrefix}
	if environment != nil {
		opts.Environment = environment
	}
	if err := env.ParseWithOptions(c, opts); err != nil {
		return errors.New("E050").
			WithDetail("Failed to read environment overrides: " + err.Error())
	}
	return nil
}

// SaveTo saves the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E050").Wrap(err)
	}

	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E050").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.LoopSize == 0 {
		c.Server.LoopSize = DefaultLoopSize
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = Duration(10 * time.Second)
	}
	if c.Channels == nil {
		c.Channels = map[string]ChannelConfig{}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("E050").
			WithDetail("Port must be between 0 and 65535")
	}
	if c.Server.LoopSize < 0 {
		return errors.New("E050").
			WithDetail("loopSize must not be negative")
	}
	if c.Snapshot.Enabled && c.Snapshot.Bucket == "" {
		return errors.New("E050").
			WithDetail("snapshot.bucket is required when snapshots are enabled")
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	if f := c.Log.Format; f != "" && f != "text" && f != "json" {
		return errors.New("E050").
			WithDetail("log.format must be text or json, got " + strconv.Quote(f))
	}
	for _, name := range c.ChannelNames() {
		if err := c.Channels[name].validate(name); err != nil {
			return err
		}
	}
	return nil
}

func (ch ChannelConfig) validate(name string) error {
	positive := func(field string, d Duration) error {
		if d <= 0 {
			return errors.New("E050").
				WithDetail("channels." + name + "." + field + " must be a positive duration")
		}
		return nil
	}

	switch ch.Kind {
	case KindThrottle:
		return positive("interval", ch.Interval)
	case KindDebounce:
		if err := positive("wait", ch.Wait); err != nil {
			return err
		}
		if ch.MaxWait < 0 {
			return errors.New("E050").
				WithDetail("channels." + name + ".maxWait must not be negative")
		}
		return nil
	case KindBudget:
		if err := positive("window", ch.Window); err != nil {
			return err
		}
		if ch.Max < 0 {
			return errors.New("E050").
				WithDetail("channels." + name + ".max must not be negative")
		}
		return nil
	case KindImmediate:
		return nil
	default:
		return errors.Newf("E051", "channel %q has unknown limiter kind %q", name, ch.Kind).
			WithSuggestion("Use one of: throttle, debounce, budget, immediate")
	}
}

// ChannelNames returns the configured channel names in sorted order.
func (c *Config) ChannelNames() []string {
	names := make([]string, 0, len(c.Channels))
	for name := range c.Channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Limiters builds one limiter factory per configured channel. opts are
// passed to every limiter.
func (c *Config) Limiters(opts ...limiter.Option) (map[string]channel.LimiterFactory, error) {
	factories := make(map[string]channel.LimiterFactory, len(c.Channels))
	for _, name := range c.ChannelNames() {
		ch := c.Channels[name]
		if err := ch.validate(name); err != nil {
			return nil, err
		}

		switch ch.Kind {
		case KindThrottle:
			factories[name] = limiter.Throttle(ch.Interval.Std(), opts...)
		case KindDebounce:
			debounceOpts := opts
			if ch.MaxWait > 0 {
				debounceOpts = append(append([]limiter.Option(nil), opts...), limiter.WithMaxWait(ch.MaxWait.Std()))
			}
			factories[name] = limiter.Debounce(ch.Wait.Std(), debounceOpts...)
		case KindBudget:
			factories[name] = limiter.Budget(ch.Window.Std(), ch.Max, opts...)
		case KindImmediate:
			factories[name] = limiter.Immediate(opts...)
		}
	}
	return factories, nil
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	switch strings.ToLower(c.Log.Level) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, errors.New("E050").
			WithDetail("log.level must be debug, info, warn or error, got " + strconv.Quote(c.Log.Level))
	}
}

// Address returns the server listen address.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}
