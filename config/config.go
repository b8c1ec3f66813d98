package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Locations LocationsConfig `yaml:"locations"`
	Output    OutputConfig    `yaml:"output"`
	Library   LibraryConfig   `yaml:"library"`
	Narration NarrationConfig `yaml:"narration"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Addr        string `yaml:"addr"`
	DownloadDir string `yaml:"downloadDir"`
}

type LocationsConfig struct {
	CharsPerLocation int `yaml:"charsPerLocation"`
}

type OutputConfig struct {
	Dir    string `yaml:"dir"`
	Atomic bool   `yaml:"atomic"`
}

type LibraryConfig struct {
	Database string `yaml:"database"`
	State    string `yaml:"state"`
}

type NarrationConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Voice     string `yaml:"voice"`
	RateLimit int    `yaml:"rateLimit"`
	CacheDir  string `yaml:"cacheDir"`
}

type LogConfig struct {
	Development bool `yaml:"development"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        ":8080",
			DownloadDir: "./downloading",
		},
		Locations: LocationsConfig{
			CharsPerLocation: 1600,
		},
		Output: OutputConfig{
			Dir: "./books",
		},
		Library: LibraryConfig{
			Database: "repository.db",
			State:    "state.db",
		},
		Narration: NarrationConfig{
			Voice:     "Joanna",
			RateLimit: 5,
			CacheDir:  "./books/audio",
		},
	}
}

// Load reads the YAML file at path on top of the defaults and applies
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v, ok := getEnv("EPUB_LOCATIONS_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnv("EPUB_LOCATIONS_CHARS"); ok {
		chars, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid EPUB_LOCATIONS_CHARS: %w", err)
		}
		c.Locations.CharsPerLocation = chars
	}
	if v, ok := getEnv("EPUB_LOCATIONS_DB"); ok {
		c.Library.Database = v
	}
	if v, ok := getEnv("EPUB_LOCATIONS_STATE"); ok {
		c.Library.State = v
	}
	if v, ok := getEnv("EPUB_LOCATIONS_OUTPUT_DIR"); ok {
		c.Output.Dir = v
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Locations.CharsPerLocation < 1 {
		return errors.New("locations.charsPerLocation must be positive")
	}
	if c.Narration.Enabled && c.Narration.RateLimit < 1 {
		return errors.New("narration.rateLimit must be positive")
	}
	return nil
}

func getEnv(key string) (string, bool) {
	value := os.Getenv(key)
	return value, value != ""
}
