package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/helheim/content_ranker/internal/extract"
)

// FileName is the config file probed for when locating the app root.
const FileName = "ranker_config.yaml"

const (
	DefaultLevelLabel    = extract.DefaultLevelLabel
	DefaultItemThreshold = 5
	DefaultMobThreshold  = 1
	DefaultMobMinLevel   = 1
	DefaultMobMaxLevel   = 60
)

// Source describes where one entity kind is read from and how it is reported.
type Source struct {
	InputDir      string
	EquipmentDir  string
	WeightsFile   string
	BlacklistFile string
	Threshold     int
	MinLevel      int
	MaxLevel      int
}

type Config struct {
	Root       string
	LevelLabel string

	Items Source
	Mobs  Source

	OutDir         string
	CompressReport bool
	Workbook       bool

	History     bool
	HistoryPath string

	LogFile  string
	LogLevel slog.Level
}

type FileConfig struct {
	LevelLabel string           `yaml:"level_label"`
	Items      SourceFileConfig `yaml:"items"`
	Mobs       SourceFileConfig `yaml:"mobs"`
	Output     struct {
		Dir            string `yaml:"dir"`
		CompressReport *bool  `yaml:"compress_report"`
		XLSX           *bool  `yaml:"xlsx"`
	} `yaml:"output"`
	History struct {
		Enabled *bool  `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"history"`
	Log struct {
		File  string `yaml:"file"`
		Level string `yaml:"level"`
	} `yaml:"log"`
}

type SourceFileConfig struct {
	InputDir      string `yaml:"input_dir"`
	EquipmentDir  string `yaml:"equipment_dir"`
	WeightsFile   string `yaml:"weights_file"`
	BlacklistFile string `yaml:"blacklist_file"`
	Threshold     *int   `yaml:"threshold"`
	MinLevel      *int   `yaml:"min_level"`
	MaxLevel      *int   `yaml:"max_level"`
}

// Defaults mirrors the directory layout the ranker has always used.
func Defaults(appRoot string) Config {
	return Config{
		Root:       appRoot,
		LevelLabel: DefaultLevelLabel,
		Items: Source{
			InputDir:      filepath.Join(appRoot, "items"),
			WeightsFile:   filepath.Join(appRoot, "items-config.yml"),
			BlacklistFile: filepath.Join(appRoot, "items-blacklist.yml"),
			Threshold:     DefaultItemThreshold,
		},
		Mobs: Source{
			InputDir:      filepath.Join(appRoot, "mobs", "actual-mobs"),
			EquipmentDir:  filepath.Join(appRoot, "mobs", "items"),
			WeightsFile:   filepath.Join(appRoot, "mob-config.yml"),
			BlacklistFile: filepath.Join(appRoot, "mobs-blacklist.yml"),
			Threshold:     DefaultMobThreshold,
			MinLevel:      DefaultMobMinLevel,
			MaxLevel:      DefaultMobMaxLevel,
		},
		OutDir:      filepath.Join(appRoot, "output", "content_ranker"),
		Workbook:    true,
		History:     true,
		HistoryPath: filepath.Join(appRoot, "work", "history.sqlite"),
		LogFile:     filepath.Join(appRoot, "logs", "content_ranker.log"),
		LogLevel:    slog.LevelInfo,
	}
}

// Load reads ranker_config.yaml from appRoot. Every key is optional; a missing file gives defaults.
func Load(appRoot string) (Config, error) {
	cfg := Defaults(appRoot)

	fc, err := loadFileConfig(filepath.Join(appRoot, FileName))
	if err != nil {
		return Config{}, err
	}

	if s := strings.TrimSpace(fc.LevelLabel); s != "" {
		cfg.LevelLabel = s
	}
	applySource(&cfg.Items, fc.Items, appRoot)
	applySource(&cfg.Mobs, fc.Mobs, appRoot)

	if s := strings.TrimSpace(fc.Output.Dir); s != "" {
		cfg.OutDir = resolve(appRoot, s)
	}
	if fc.Output.CompressReport != nil {
		cfg.CompressReport = *fc.Output.CompressReport
	}
	if fc.Output.XLSX != nil {
		cfg.Workbook = *fc.Output.XLSX
	}
	if fc.History.Enabled != nil {
		cfg.History = *fc.History.Enabled
	}
	if s := strings.TrimSpace(fc.History.Path); s != "" {
		cfg.HistoryPath = resolve(appRoot, s)
	}
	if s := strings.TrimSpace(fc.Log.File); s != "" {
		cfg.LogFile = resolve(appRoot, s)
	}
	if s := strings.TrimSpace(fc.Log.Level); s != "" {
		lvl, err := ParseLevel(s)
		if err != nil {
			return Config{}, err
		}
		cfg.LogLevel = lvl
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applySource(dst *Source, fc SourceFileConfig, appRoot string) {
	if s := strings.TrimSpace(fc.InputDir); s != "" {
		dst.InputDir = resolve(appRoot, s)
	}
	if s := strings.TrimSpace(fc.EquipmentDir); s != "" {
		dst.EquipmentDir = resolve(appRoot, s)
	}
	if s := strings.TrimSpace(fc.WeightsFile); s != "" {
		dst.WeightsFile = resolve(appRoot, s)
	}
	if s := strings.TrimSpace(fc.BlacklistFile); s != "" {
		dst.BlacklistFile = resolve(appRoot, s)
	}
	if fc.Threshold != nil {
		dst.Threshold = *fc.Threshold
	}
	if fc.MinLevel != nil {
		dst.MinLevel = *fc.MinLevel
	}
	if fc.MaxLevel != nil {
		dst.MaxLevel = *fc.MaxLevel
	}
	// Buckets need at least one sample.
	if dst.Threshold < 1 {
		dst.Threshold = 1
	}
}

func (c Config) validate() error {
	for name, s := range map[string]Source{"items": c.Items, "mobs": c.Mobs} {
		if s.MinLevel < 0 || s.MaxLevel < 0 {
			return fmt.Errorf("%s: level bounds must not be negative", name)
		}
		if s.MaxLevel != 0 && s.MinLevel > s.MaxLevel {
			return fmt.Errorf("%s: min_level %d is above max_level %d", name, s.MinLevel, s.MaxLevel)
		}
	}
	return nil
}

// ParseLevel accepts debug, info, warn/warning and error.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q (expected debug|info|warn|error)", s)
	}
}

func resolve(appRoot, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(appRoot, p)
}

func loadFileConfig(path string) (FileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("read config yaml %s: %w", path, err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return FileConfig{}, nil
	}

	var fc FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil {
		return FileConfig{}, fmt.Errorf("parse config yaml %s: %w", path, err)
	}
	return fc, nil
}
