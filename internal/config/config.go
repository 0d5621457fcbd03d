package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. ANNOTATOR_STORE_DSN.
const EnvPrefix = "ANNOTATOR"

// Config holds the application configuration
type Config struct {
	Images   ImagesConfig   `json:"images" mapstructure:"images"`
	Store    StoreConfig    `json:"store" mapstructure:"store"`
	Server   ServerConfig   `json:"server" mapstructure:"server"`
	Prelabel PrelabelConfig `json:"prelabel" mapstructure:"prelabel"`
	Render   RenderConfig   `json:"render" mapstructure:"render"`
	Log      LogConfig      `json:"log" mapstructure:"log"`
}

// ImagesConfig locates the images to annotate
type ImagesConfig struct {
	Dir           string   `json:"dir" mapstructure:"dir"`
	Extensions    []string `json:"extensions" mapstructure:"extensions"`
	ThumbnailSize int      `json:"thumbnail_size" mapstructure:"thumbnail_size"`
}

// StoreConfig selects the annotation database
type StoreConfig struct {
	Driver string `json:"driver" mapstructure:"driver"`
	DSN    string `json:"dsn" mapstructure:"dsn"`
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Addr              string `json:"addr" mapstructure:"addr"`
	SessionTTLMinutes int    `json:"session_ttl_minutes" mapstructure:"session_ttl_minutes"`
}

// PrelabelConfig holds configuration for model suggestions
type PrelabelConfig struct {
	Backend     string  `json:"backend" mapstructure:"backend"`
	URL         string  `json:"url" mapstructure:"url"`
	Model       string  `json:"model" mapstructure:"model"`
	MinBoxArea  float64 `json:"min_box_area" mapstructure:"min_box_area"`
	SendFormat  string  `json:"send_format" mapstructure:"send_format"`
	SendMaxDim  int     `json:"send_max_dim" mapstructure:"send_max_dim"`
	SendQuality int     `json:"send_quality" mapstructure:"send_quality"`
}

// RenderConfig holds configuration for overlay output
type RenderConfig struct {
	Format     string `json:"format" mapstructure:"format"`
	Quality    int    `json:"quality" mapstructure:"quality"`
	ShowLabels bool   `json:"show_labels" mapstructure:"show_labels"`
}

// LogConfig selects the log level and handler
type LogConfig struct {
	Level  string `json:"level" mapstructure:"level"`
	Format string `json:"format" mapstructure:"format"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Images: ImagesConfig{
			Dir:           "./images",
			Extensions:    []string{"jpg", "jpeg", "png", "webp", "bmp", "gif"},
			ThumbnailSize: 80,
		},
		Store: StoreConfig{
			Driver: "sqlite",
			DSN:    "annotations.db",
		},
		Server: ServerConfig{
			Addr:              ":8080",
			SessionTTLMinutes: 30,
		},
		Prelabel: PrelabelConfig{
			Backend:     "saliency",
			URL:         "http://localhost:11434",
			Model:       "qwen2.5vl:7b",
			MinBoxArea:  100,
			SendFormat:  "jpg",
			SendMaxDim:  1024,
			SendQuality: 85,
		},
		Render: RenderConfig{
			Format:     "png",
			Quality:    90,
			ShowLabels: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("images.dir", d.Images.Dir)
	v.SetDefault("images.extensions", d.Images.Extensions)
	v.SetDefault("images.thumbnail_size", d.Images.ThumbnailSize)

	v.SetDefault("store.driver", d.Store.Driver)
	v.SetDefault("store.dsn", d.Store.DSN)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.session_ttl_minutes", d.Server.SessionTTLMinutes)

	v.SetDefault("prelabel.backend", d.Prelabel.Backend)
	v.SetDefault("prelabel.url", d.Prelabel.URL)
	v.SetDefault("prelabel.model", d.Prelabel.Model)
	v.SetDefault("prelabel.min_box_area", d.Prelabel.MinBoxArea)
	v.SetDefault("prelabel.send_format", d.Prelabel.SendFormat)
	v.SetDefault("prelabel.send_max_dim", d.Prelabel.SendMaxDim)
	v.SetDefault("prelabel.send_quality", d.Prelabel.SendQuality)

	v.SetDefault("render.format", d.Render.Format)
	v.SetDefault("render.quality", d.Render.Quality)
	v.SetDefault("render.show_labels", d.Render.ShowLabels)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Load builds the configuration from defaults, an optional config file and
// ANNOTATOR_* environment variables, in increasing order of precedence.
// A .env file in the working directory is read first when present.
// With an empty path, config.{json,yaml} is searched in the working directory
// and in the user config directory; a missing file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Dir(GetConfigPath()))
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a JSON or YAML file
func LoadFromFile(filename string) (*Config, error) {
	return Load(filename)
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Images.Dir == "" {
		return fmt.Errorf("images.dir cannot be empty")
	}

	if len(c.Images.Extensions) == 0 {
		return fmt.Errorf("images.extensions cannot be empty")
	}

	if c.Images.ThumbnailSize < 1 {
		return fmt.Errorf("images.thumbnail_size must be positive")
	}

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("store.driver must be sqlite or postgres, got %q", c.Store.Driver)
	}

	if c.Store.DSN == "" {
		return fmt.Errorf("store.dsn cannot be empty")
	}

	if c.Server.SessionTTLMinutes < 1 {
		return fmt.Errorf("server.session_ttl_minutes must be positive")
	}

	switch c.Prelabel.Backend {
	case "saliency":
	case "ollama", "llamacpp":
		if c.Prelabel.URL == "" || c.Prelabel.Model == "" {
			return fmt.Errorf("prelabel.url and prelabel.model are required for the %s backend", c.Prelabel.Backend)
		}
	default:
		return fmt.Errorf("prelabel.backend must be saliency, ollama or llamacpp, got %q", c.Prelabel.Backend)
	}

	if c.Prelabel.MinBoxArea < 0 {
		return fmt.Errorf("prelabel.min_box_area cannot be negative")
	}

	if c.Prelabel.SendQuality < 1 || c.Prelabel.SendQuality > 100 {
		return fmt.Errorf("prelabel.send_quality must be between 1 and 100")
	}

	if c.Render.Quality < 1 || c.Render.Quality > 100 {
		return fmt.Errorf("render.quality must be between 1 and 100")
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "image-annotator", "config.json")
}
