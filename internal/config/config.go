package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"gopkg.in/yaml.v3"

	"procmon/internal/snapshot"
)

const (
	defaultInterval    = 2 * time.Second
	defaultGraphPoints = 60
	envInterval        = "PROCMON_INTERVAL"
	envDBPath          = "PROCMON_DB"
	envGraphPoints     = "PROCMON_GRAPH_POINTS"
)

var log = logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "config"))

// Config holds the defaults every sampling command starts from. CLI flags
// override it field by field.
type Config struct {
	Interval    time.Duration
	DBPath      string
	GraphPoints int
	Sort        snapshot.SortKey
	MinMemoryMB uint64
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Interval:    defaultInterval,
		GraphPoints: defaultGraphPoints,
		Sort:        snapshot.SortMemory,
	}
}

// Load builds a Config from an optional JSON or YAML file plus environment
// overrides. Files ending in .yaml or .yml are read as YAML.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(envInterval); v != "" {
		if dur, err := time.ParseDuration(v); err == nil && dur > 0 {
			cfg.Interval = dur
		} else {
			log.Infoln("ignoring invalid", envInterval, "value", strconv.Quote(v))
		}
	}

	if v := os.Getenv(envDBPath); v != "" {
		cfg.DBPath = v
	}

	if v := os.Getenv(envGraphPoints); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.GraphPoints = n
		} else {
			log.Infoln("ignoring invalid", envGraphPoints, "value", strconv.Quote(v))
		}
	}
}

type fileConfig struct {
	Interval    string `json:"interval" yaml:"interval"`
	DBPath      string `json:"db_path" yaml:"db_path"`
	GraphPoints int    `json:"graph_points" yaml:"graph_points"`
	Sort        string `json:"sort" yaml:"sort"`
	MinMemoryMB uint64 `json:"min_memory_mb" yaml:"min_memory_mb"`
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var raw fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return err
	}

	if raw.Interval != "" {
		dur, err := time.ParseDuration(raw.Interval)
		if err != nil {
			return fmt.Errorf("parse interval: %w", err)
		}
		if dur <= 0 {
			return errors.New("interval must be > 0")
		}
		cfg.Interval = dur
	}
	if raw.GraphPoints < 0 {
		return errors.New("graph_points must be > 0")
	}
	if raw.GraphPoints > 0 {
		cfg.GraphPoints = raw.GraphPoints
	}
	if raw.Sort != "" {
		key, err := snapshot.ParseSortKey(raw.Sort)
		if err != nil {
			return err
		}
		cfg.Sort = key
	}
	if raw.DBPath != "" {
		cfg.DBPath = raw.DBPath
	}
	if raw.MinMemoryMB > 0 {
		cfg.MinMemoryMB = raw.MinMemoryMB
	}
	return nil
}
