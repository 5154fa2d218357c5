package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/mcdev12/scoreboard/go/internal/dbconfig"
	"gopkg.in/yaml.v3"
)

const (
	EventStoreMemory   = "memory"
	EventStorePostgres = "postgres"
)

// Minimum panel geometry: two 32 px score cells plus a timer area, and the
// full height of a large digit.
const (
	MinPanelWidth  = 96
	MinPanelHeight = 32
)

type Config struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"console"`
	ConfigFile      string        `env:"SCOREBOARD_CONFIG"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	AllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	FrameInterval  time.Duration `env:"FRAME_INTERVAL" envDefault:"100ms"`
	ContactTimeout time.Duration `env:"CLIENT_CONTACT_TIMEOUT" envDefault:"30s"`
	MirrorEvery    int           `env:"MIRROR_EVERY" envDefault:"5"`

	EventStore     string `env:"EVENT_STORE" envDefault:"memory"`
	EventBuffer    int    `env:"EVENT_BUFFER_SIZE" envDefault:"1024"`
	MemoryCapacity int    `env:"EVENT_MEMORY_CAPACITY" envDefault:"5000"`
	NATSURL        string `env:"NATS_URL"`

	PresetsAppName string `env:"PRESETS_APP_NAME" envDefault:"scoreboard"`
	PresetsPersist bool   `env:"PRESETS_PERSIST" envDefault:"true"`

	Database dbconfig.Config
	Display  Display
}

// Display is the LED matrix geometry. It comes from the YAML file named by
// SCOREBOARD_CONFIG, under the "display" key.
type Display struct {
	Rows        int `yaml:"rows"`
	Cols        int `yaml:"cols"`
	ChainLength int `yaml:"chain_length"`
	Parallel    int `yaml:"parallel"`
}

func DefaultDisplay() Display {
	return Display{Rows: 32, Cols: 64, ChainLength: 4, Parallel: 1}
}

// Width is the pixel width of the chained panels.
func (d Display) Width() int { return d.Cols * d.ChainLength }

// Height is the pixel height of the parallel panels.
func (d Display) Height() int { return d.Rows * d.Parallel }

type fileConfig struct {
	Display Display `yaml:"display"`
}

// Load reads .env (if present), the environment and the optional YAML file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	cfg.Display = DefaultDisplay()
	if cfg.ConfigFile != "" {
		if err := cfg.loadFile(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	file := fileConfig{Display: c.Display}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	c.Display = file.Display
	return nil
}

func (c *Config) Validate() error {
	switch c.EventStore {
	case EventStoreMemory, EventStorePostgres:
	default:
		return fmt.Errorf("invalid EVENT_STORE %q: want %s or %s", c.EventStore, EventStoreMemory, EventStorePostgres)
	}
	if c.FrameInterval <= 0 {
		return fmt.Errorf("FRAME_INTERVAL must be positive, got %s", c.FrameInterval)
	}
	if w, h := c.Display.Width(), c.Display.Height(); w < MinPanelWidth || h < MinPanelHeight {
		return fmt.Errorf("display %dx%d is smaller than %dx%d", w, h, MinPanelWidth, MinPanelHeight)
	}
	return nil
}
