package config

import (
	"errors"
	"fmt"
	"math"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"screenlink/internal/capture"
	"screenlink/internal/command"
	"screenlink/internal/control"
	"screenlink/internal/fragment"
	"screenlink/internal/stream"

	"gopkg.in/yaml.v3"
)

// Config holds settings for both the host and the viewer.
type Config struct {
	// Host is the counterpart the controlled host dials.
	Host        string `yaml:"host"`
	ControlPort int    `yaml:"control_port"`
	StreamPort  int    `yaml:"stream_port"`

	ChunkSize   int           `yaml:"chunk_size"`
	Interval    time.Duration `yaml:"interval"`
	Sensitivity float64       `yaml:"sensitivity"`
	Quality     int           `yaml:"quality"`
	Display     int           `yaml:"display"`
	Scale       float64       `yaml:"scale"`
	Codec       string        `yaml:"codec"`
	DialTimeout time.Duration `yaml:"dial_timeout"`

	Stats         bool          `yaml:"stats"`
	StatsInterval time.Duration `yaml:"stats_interval"`

	// Viewer side.
	Listen    string `yaml:"listen"`
	MaxFrames int    `yaml:"max_frames"`
}

func Default() Config {
	return Config{
		ControlPort:   6000,
		StreamPort:    7000,
		ChunkSize:     fragment.DefaultChunkSize,
		Interval:      stream.DefaultInterval,
		Sensitivity:   control.DefaultSensitivity,
		Quality:       capture.DefaultQuality,
		Scale:         1,
		Codec:         command.CodecText,
		DialTimeout:   10 * time.Second,
		StatsInterval: 5 * time.Second,
		Listen:        ":8080",
		MaxFrames:     fragment.DefaultMaxFrames,
	}
}

// Load returns the defaults overlaid with the YAML file at path, if any,
// and then with SCREENLINK_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(name string, dst *string) {
		if v, ok := lookup("SCREENLINK_" + name); ok {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if v, ok := lookup("SCREENLINK_" + name); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("SCREENLINK_%s: %w", name, err))
				return
			}
			*dst = n
		}
	}
	flt := func(name string, dst *float64) {
		if v, ok := lookup("SCREENLINK_" + name); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("SCREENLINK_%s: %w", name, err))
				return
			}
			*dst = f
		}
	}
	flag := func(name string, dst *bool) {
		if v, ok := lookup("SCREENLINK_" + name); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("SCREENLINK_%s: %w", name, err))
				return
			}
			*dst = b
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v, ok := lookup("SCREENLINK_" + name); ok {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("SCREENLINK_%s: %w", name, err))
				return
			}
			*dst = d
		}
	}

	str("HOST", &c.Host)
	num("CONTROL_PORT", &c.ControlPort)
	num("STREAM_PORT", &c.StreamPort)
	num("CHUNK_SIZE", &c.ChunkSize)
	dur("INTERVAL", &c.Interval)
	flt("SENSITIVITY", &c.Sensitivity)
	num("QUALITY", &c.Quality)
	num("DISPLAY", &c.Display)
	flt("SCALE", &c.Scale)
	str("CODEC", &c.Codec)
	dur("DIAL_TIMEOUT", &c.DialTimeout)
	flag("STATS", &c.Stats)
	dur("STATS_INTERVAL", &c.StatsInterval)
	str("LISTEN", &c.Listen)
	num("MAX_FRAMES", &c.MaxFrames)
	return errors.Join(errs...)
}

// ControlAddr is the TCP endpoint of the counterpart.
func (c Config) ControlAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.ControlPort))
}

// StreamAddr is the UDP endpoint of the counterpart.
func (c Config) StreamAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.StreamPort))
}

// Validate checks settings shared by both roles.
func (c Config) Validate() error {
	var errs []error
	if c.ControlPort <= 0 || c.ControlPort > 65535 {
		errs = append(errs, fmt.Errorf("control_port %d out of range", c.ControlPort))
	}
	if c.StreamPort <= 0 || c.StreamPort > 65535 {
		errs = append(errs, fmt.Errorf("stream_port %d out of range", c.StreamPort))
	}
	if c.ChunkSize <= 0 || c.ChunkSize > fragment.MaxChunkSize {
		errs = append(errs, fmt.Errorf("chunk_size must be in 1..%d, got %d", fragment.MaxChunkSize, c.ChunkSize))
	}
	if c.Interval <= 0 {
		errs = append(errs, fmt.Errorf("interval must be positive, got %s", c.Interval))
	}
	if !(c.Sensitivity >= 1) || math.IsInf(c.Sensitivity, 0) {
		errs = append(errs, fmt.Errorf("sensitivity must be at least 1, got %g", c.Sensitivity))
	}
	if c.Quality < 1 || c.Quality > 100 {
		errs = append(errs, fmt.Errorf("quality must be in 1..100, got %d", c.Quality))
	}
	if c.Scale <= 0 || c.Scale > 1 {
		errs = append(errs, fmt.Errorf("scale must be in (0,1], got %g", c.Scale))
	}
	if c.DialTimeout < 0 {
		errs = append(errs, fmt.Errorf("dial_timeout must not be negative, got %s", c.DialTimeout))
	}
	if c.Stats && c.StatsInterval <= 0 {
		errs = append(errs, fmt.Errorf("stats_interval must be positive, got %s", c.StatsInterval))
	}
	if c.MaxFrames <= 0 {
		errs = append(errs, fmt.Errorf("max_frames must be positive, got %d", c.MaxFrames))
	}
	if c.Codec != command.CodecText && c.Codec != command.CodecBinary {
		errs = append(errs, fmt.Errorf("unknown codec %q", c.Codec))
	}
	return errors.Join(errs...)
}

// ValidateHost also requires the counterpart address.
func (c Config) ValidateHost() error {
	if c.Host == "" {
		return errors.Join(errors.New("host is required"), c.Validate())
	}
	return c.Validate()
}
