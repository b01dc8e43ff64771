// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mwiater/framebench/internal/benchmark"
	"github.com/mwiater/framebench/internal/wire"
)

const (
	// DefaultConfigPath is the config file read when --config is not given. A missing file is not an error.
	DefaultConfigPath = "framebench.yaml"
	// DefaultPort is the tcp port the responder binds and the driver dials.
	DefaultPort = 5555
	// DefaultHeaderSize is the size in bytes of the leading header frame.
	DefaultHeaderSize = 100
	// DefaultDataSize is the size in bytes of the payload split across the remaining frames.
	DefaultDataSize = 500000
	// DefaultRuns is the number of timed exchanges per chunk size.
	DefaultRuns = 5
	// DefaultStartupDelay gives the embedded responder time to bind before the first dial.
	DefaultStartupDelay = time.Second
	// DefaultShutdownGrace is how long the run command waits for the responder after cancelling it.
	DefaultShutdownGrace = 500 * time.Millisecond
	defaultLogFile       = "framebench.log"
)

// ErrInvalidSize is returned for size strings that are not a positive byte count.
var ErrInvalidSize = errors.New("invalid size")

// Config represents the top-level application configuration.
type Config struct {
	Port         int           `json:"port" mapstructure:"port"`
	Host         string        `json:"host" mapstructure:"host"`
	HeaderSize   int           `json:"headerSize" mapstructure:"headerSize"`
	DataSize     int           `json:"dataSize" mapstructure:"dataSize"`
	Runs         int           `json:"runs" mapstructure:"runs"`
	ChunkSizes   []string      `json:"chunkSizes,omitempty" mapstructure:"chunkSizes"`
	Pause        time.Duration `json:"pause" mapstructure:"pause"`
	StartupDelay time.Duration `json:"startupDelay" mapstructure:"startupDelay"`
	Progress     bool          `json:"progress" mapstructure:"progress"`
	JSONMode     bool          `json:"jsonMode" mapstructure:"jsonMode"`
	Debug        bool          `json:"debug" mapstructure:"debug"`
	LogFile      string        `json:"logFile,omitempty" mapstructure:"logFile"`
	ConfigPath   string        `json:"-" mapstructure:"-"`
}

// Defaults returns the configuration used when neither a config file nor flags say otherwise.
func Defaults() Config {
	return Config{
		Port:         DefaultPort,
		HeaderSize:   DefaultHeaderSize,
		DataSize:     DefaultDataSize,
		Runs:         DefaultRuns,
		Pause:        benchmark.DefaultPause,
		StartupDelay: DefaultStartupDelay,
	}
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return defaultLogFile
}

// EmbeddedResponder reports whether the run command should start its own responder.
func (c Config) EmbeddedResponder() bool {
	return strings.TrimSpace(c.Host) == ""
}

// Endpoint is the address the driver dials.
func (c Config) Endpoint() string {
	return wire.Endpoint(c.Host, c.Port)
}

// BindEndpoint is the address the responder binds.
func (c Config) BindEndpoint() string {
	return wire.BindEndpoint(c.Port)
}

// ChunkSizeBytes parses the configured chunk sizes, falling back to the default list.
func (c Config) ChunkSizeBytes() ([]int, error) {
	if len(c.ChunkSizes) == 0 {
		return benchmark.DefaultChunkSizes(), nil
	}
	sizes := make([]int, 0, len(c.ChunkSizes))
	for _, raw := range c.ChunkSizes {
		// a single config entry may itself be a comma separated list
		for _, part := range strings.Split(raw, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			n, err := ParseSize(part)
			if err != nil {
				return nil, fmt.Errorf("chunk size: %w", err)
			}
			sizes = append(sizes, n)
		}
	}
	if len(sizes) == 0 {
		return benchmark.DefaultChunkSizes(), nil
	}
	return sizes, nil
}

// Params converts the configuration into validated benchmark parameters.
func (c Config) Params() (benchmark.Params, error) {
	if c.Port < 1 || c.Port > 65535 {
		return benchmark.Params{}, fmt.Errorf("%w: port %d out of range", benchmark.ErrInvalidParams, c.Port)
	}
	sizes, err := c.ChunkSizeBytes()
	if err != nil {
		return benchmark.Params{}, fmt.Errorf("%w: %v", benchmark.ErrInvalidParams, err)
	}
	p := benchmark.Params{
		Endpoint:   c.Endpoint(),
		HeaderSize: c.HeaderSize,
		DataSize:   c.DataSize,
		ChunkSizes: sizes,
		Runs:       c.Runs,
		Pause:      c.Pause,
	}
	if err := p.Validate(); err != nil {
		return benchmark.Params{}, err
	}
	return p, nil
}

var sizeUnits = []struct {
	suffix string
	factor int
}{
	{"GIB", 1 << 30}, {"GB", 1 << 30}, {"G", 1 << 30},
	{"MIB", 1 << 20}, {"MB", 1 << 20}, {"M", 1 << 20},
	{"KIB", 1 << 10}, {"KB", 1 << 10}, {"K", 1 << 10},
	{"B", 1},
}

// ParseSize converts "65536", "64KiB", "64KB" or "1MiB" into a byte count.
// Binary multiples are used for every suffix.
func ParseSize(s string) (int, error) {
	raw := strings.ToUpper(strings.TrimSpace(s))
	if raw == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidSize)
	}

	factor := 1
	for _, u := range sizeUnits {
		if strings.HasSuffix(raw, u.suffix) {
			factor = u.factor
			raw = strings.TrimSpace(strings.TrimSuffix(raw, u.suffix))
			break
		}
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: %q must be positive", ErrInvalidSize, s)
	}
	return n * factor, nil
}
