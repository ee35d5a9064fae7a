// Package config loads roadmap planner settings from YAML.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/alimasry/roadmap-planner/history"
)

// Store backends.
const (
	BackendMemory    = "memory"
	BackendSQLite    = "sqlite"
	BackendFirestore = "firestore"
)

// Config is the top-level server configuration.
type Config struct {
	Addr      string        `yaml:"addr"`
	StaticDir string        `yaml:"static_dir"`
	History   HistoryConfig `yaml:"history"`
	Store     StoreConfig   `yaml:"store"`
	Log       LogConfig     `yaml:"log"`
}

// HistoryConfig controls the per-roadmap undo timeline.
type HistoryConfig struct {
	Capacity int `yaml:"capacity"`
}

// StoreConfig selects and configures the live roadmap store.
type StoreConfig struct {
	Backend          string        `yaml:"backend"`
	SQLitePath       string        `yaml:"sqlite_path"`
	FirestoreProject string        `yaml:"firestore_project"`
	FlushInterval    time.Duration `yaml:"flush_interval"`
}

// LogConfig controls slog output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:    ":8080",
		History: HistoryConfig{Capacity: history.DefaultCapacity},
		Store: StoreConfig{
			Backend:       BackendMemory,
			SQLitePath:    "roadmaps.db",
			FlushInterval: 5 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr must not be empty")
	}
	if c.History.Capacity < 1 {
		return fmt.Errorf("history.capacity must be at least 1, got %d", c.History.Capacity)
	}
	switch c.Store.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.Store.SQLitePath == "" {
			return errors.New("store.sqlite_path is required for the sqlite backend")
		}
	case BackendFirestore:
		if c.Store.FirestoreProject == "" {
			return errors.New("store.firestore_project is required for the firestore backend")
		}
	default:
		return fmt.Errorf("unknown store.backend %q", c.Store.Backend)
	}
	if c.Store.Backend != BackendMemory && c.Store.FlushInterval <= 0 {
		return fmt.Errorf("store.flush_interval must be positive, got %s", c.Store.FlushInterval)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		return fmt.Errorf("unknown log.format %q", c.Log.Format)
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}

// Logger builds the slog logger described by the log settings.
func (c LogConfig) Logger() *slog.Logger {
	lvl, err := parseLevel(c.Level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
