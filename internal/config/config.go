package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Project struct {
		Root    string `yaml:"root"`
		Workers int    `yaml:"workers"`
	} `yaml:"project"`
	Detection struct {
		MinConfidence    float64  `yaml:"min_confidence"`    // 0 keeps each pattern's own threshold
		TransparentKinds []string `yaml:"transparent_kinds"` // empty keeps the defaults
		CatalogPath      string   `yaml:"catalog_path"`      // optional extra YAML pattern catalog
	} `yaml:"detection"`
	Storage struct {
		DBPath string `yaml:"db_path"`
	} `yaml:"storage"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads the YAML configuration, falling back to defaults when the
// file is absent, and applies environment overrides last.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := defaults()

	// 2. Load YAML config
	file, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// 3. Override with Environment Variables if present
	if root := os.Getenv("PATLENS_ROOT"); root != "" {
		cfg.Project.Root = root
	}
	if db := os.Getenv("PATLENS_DB"); db != "" {
		cfg.Storage.DBPath = db
	}
	if level := os.Getenv("PATLENS_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if workers := os.Getenv("PATLENS_WORKERS"); workers != "" {
		if n, err := strconv.Atoi(workers); err == nil && n > 0 {
			cfg.Project.Workers = n
		}
	}

	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{}
	cfg.Project.Root = "."
	cfg.Project.Workers = 4
	cfg.Storage.DBPath = "patlens.db"
	cfg.Logging.Level = "info"
	return cfg
}
