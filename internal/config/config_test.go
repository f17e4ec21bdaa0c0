package config_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/helheim/content_ranker/internal/config"
)

func writeConfig(t *testing.T, root, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(root, config.FileName), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	root := t.TempDir()
	cfg, err := config.Load(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LevelLabel != config.DefaultLevelLabel {
		t.Fatalf("expected default level label, got %q", cfg.LevelLabel)
	}
	if cfg.Items.Threshold != 5 || cfg.Mobs.Threshold != 1 {
		t.Fatalf("unexpected thresholds items=%d mobs=%d", cfg.Items.Threshold, cfg.Mobs.Threshold)
	}
	if cfg.Mobs.MinLevel != 1 || cfg.Mobs.MaxLevel != 60 {
		t.Fatalf("unexpected mob level range %d..%d", cfg.Mobs.MinLevel, cfg.Mobs.MaxLevel)
	}
	if cfg.Items.WeightsFile != filepath.Join(root, "items-config.yml") {
		t.Fatalf("unexpected weights file %q", cfg.Items.WeightsFile)
	}
	if cfg.Mobs.EquipmentDir != filepath.Join(root, "mobs", "items") {
		t.Fatalf("unexpected equipment dir %q", cfg.Mobs.EquipmentDir)
	}
	if !cfg.Workbook || !cfg.History || cfg.CompressReport {
		t.Fatalf("unexpected output toggles %#v", cfg)
	}
}

func TestLoad_FileOverrides(t *testing.T) {
	root := t.TempDir()
	abs := filepath.Join(t.TempDir(), "weights.yml")
	writeConfig(t, root, `
level_label: Required Level
items:
  input_dir: data/items
  weights_file: `+abs+`
  threshold: 0
mobs:
  max_level: 80
output:
  compress_report: true
  xlsx: false
history:
  enabled: false
log:
  level: debug
`)
	cfg, err := config.Load(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LevelLabel != "Required Level" {
		t.Fatalf("unexpected label %q", cfg.LevelLabel)
	}
	if cfg.Items.InputDir != filepath.Join(root, "data", "items") {
		t.Fatalf("expected relative dir to resolve against root, got %q", cfg.Items.InputDir)
	}
	if cfg.Items.WeightsFile != abs {
		t.Fatalf("expected absolute path to be kept, got %q", cfg.Items.WeightsFile)
	}
	if cfg.Items.Threshold != 1 {
		t.Fatalf("expected threshold below 1 to become 1, got %d", cfg.Items.Threshold)
	}
	if cfg.Mobs.MaxLevel != 80 || cfg.Mobs.MinLevel != 1 {
		t.Fatalf("unexpected mob range %d..%d", cfg.Mobs.MinLevel, cfg.Mobs.MaxLevel)
	}
	if !cfg.CompressReport || cfg.Workbook || cfg.History {
		t.Fatalf("unexpected toggles %#v", cfg)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Fatalf("expected debug level, got %v", cfg.LogLevel)
	}
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "levelLabel: nope\n")
	if _, err := config.Load(root); err == nil {
		t.Fatalf("expected unknown key to be rejected")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	for name, content := range map[string]string{
		"log level":  "log:\n  level: loud\n",
		"mob range":  "mobs:\n  min_level: 30\n  max_level: 10\n",
		"negative":   "items:\n  min_level: -1\n",
		"not a map":  "- a\n",
		"bad number": "items:\n  threshold: many\n",
	} {
		root := t.TempDir()
		writeConfig(t, root, content)
		if _, err := config.Load(root); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestSetupLoggerWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := config.SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)
	logger.Debug("hidden")
	logger.Info("ranked", "kind", "item", "kept", 3)

	if strings.Contains(stderr.String(), "hidden") || strings.Contains(file.String(), "hidden") {
		t.Fatalf("expected debug record to be filtered")
	}
	if !strings.Contains(stderr.String(), "msg=ranked") {
		t.Fatalf("expected text record on stderr, got %q", stderr.String())
	}
	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(file.Bytes()), &rec); err != nil {
		t.Fatalf("expected JSON record in file: %v", err)
	}
	if rec["msg"] != "ranked" || rec["kind"] != "item" {
		t.Fatalf("unexpected record %#v", rec)
	}
}

func TestSetupLogger_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "content_ranker.log")
	logger, cleanup := config.SetupLogger(path, slog.LevelInfo)
	logger.Info("hello")
	if err := cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(b), `"msg":"hello"`) {
		t.Fatalf("expected JSON line, got %q", string(b))
	}
}
