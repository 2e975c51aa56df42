package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"plaguedoc/pkg/robottask"
)

// DefaultHeader is the line typed into the terminal panel before any source
// is fetched.
const DefaultHeader = ">> Terminal Ready...\n\n"

// DefaultBaseURL is the backend serving robot-task snapshots.
const DefaultBaseURL = "https://plaguedoc-bc-backend.onrender.com"

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the plaguedoc terminal.
type Config struct {
	Rain     Rain     `yaml:"rain"`
	Terminal Terminal `yaml:"terminal"`
	API      API      `yaml:"api"`
	Logging  Logging  `yaml:"logging"`
}

// Rain holds the rain-field animation parameters.
type Rain struct {
	CellSize       int           `yaml:"cell_size" default:"1" validate:"min=1"`
	ChainLength    int           `yaml:"chain_length" default:"10" validate:"min=1"`
	Advance        float64       `yaml:"advance" default:"0.3" validate:"gt=0"`
	ResetThreshold float64       `yaml:"reset_threshold" default:"0.975" validate:"gte=0,lt=1"`
	Fade           float64       `yaml:"fade" default:"0.05" validate:"gt=0,lte=1"`
	FPS            int           `yaml:"fps" default:"30" validate:"min=1,max=240"`
	ResizeDebounce time.Duration `yaml:"resize_debounce" default:"200ms" validate:"gte=0"`
	Glyphs         string        `yaml:"glyphs" default:"01" validate:"min=1"`
}

// Terminal configures the typewriter panel.
type Terminal struct {
	Header          string        `yaml:"header"`
	TypeDelay       time.Duration `yaml:"type_delay" default:"50ms" validate:"gt=0"`
	ActivationDelay time.Duration `yaml:"activation_delay" default:"500ms" validate:"gte=0"`
	KeepHeader      bool          `yaml:"keep_header"`
}

// API holds the market-data backend endpoints.
type API struct {
	BaseURL        string        `yaml:"base_url" default:"https://plaguedoc-bc-backend.onrender.com" validate:"required,url"`
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gte=0"`
	Sources        []Source      `yaml:"sources" validate:"dive"`
}

// Source is one data source rendered as a titled section.
type Source struct {
	ID       string `yaml:"id" validate:"required"`
	Title    string `yaml:"title" validate:"required"`
	Endpoint string `yaml:"endpoint" validate:"required,url"`
}

// Logging configures the application logger.
type Logging struct {
	Level      string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format     string `yaml:"format" default:"json" validate:"oneof=json text"`
	File       string `yaml:"file" default:"/tmp/plaguedoc.log" validate:"required"`
	MaxSizeMB  int    `yaml:"max_size_mb" default:"10" validate:"min=1"`
	MaxBackups int    `yaml:"max_backups" default:"3" validate:"gte=0"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

var validate = validator.New()

// Load fills defaults, overlays the YAML configuration file at the given path,
// applies environment variable overrides and validates the result. A missing
// file is not an error: the defaults and the environment are used instead.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if cfg.Terminal.Header == "" {
		cfg.Terminal.Header = DefaultHeader
	}

	applyEnvOverrides(cfg)

	if len(cfg.API.Sources) == 0 {
		cfg.API.Sources = DefaultSources(cfg.API.BaseURL)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultSources returns the canonical solana, ethereum, base source list
// served by the robot-task endpoint of baseURL.
func DefaultSources(baseURL string) []Source {
	ids := []struct{ id, name string }{
		{"solana", "Solana"},
		{"ethereum", "Ethereum"},
		{"base", "Base"},
	}
	sources := make([]Source, 0, len(ids))
	for _, s := range ids {
		sources = append(sources, Source{
			ID:       s.id,
			Title:    s.name + " Top Trending",
			Endpoint: robottask.Endpoint(baseURL, s.id),
		})
	}
	return sources
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PLAGUEDOC_API_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}

	if v := os.Getenv("PLAGUEDOC_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("PLAGUEDOC_LOG_FILE"); v != "" {
		cfg.Logging.File = v
	}

	if v := os.Getenv("PLAGUEDOC_FPS"); v != "" {
		if fps, err := strconv.Atoi(v); err == nil {
			cfg.Rain.FPS = fps
		}
	}
}
