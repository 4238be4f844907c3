package keyloop

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the contents of keyloop.toml. The file is only ever read.
//
//	signals   = ["SIGINT", "SIGTERM", "SIGHUP"]
//	log_level = "debug"
//
//	[bindings]
//	quit         = "<End>"
//	draw_headers = "h"
type Config struct {
	Signals  []string          `toml:"signals"`
	LogLevel string            `toml:"log_level"`
	Bindings map[string]string `toml:"bindings"`
}

// ConfigPath is where keyloop looks for its config when -config is not
// given: keyloop.toml under $XDG_CONFIG_HOME, falling back to ~/.config.
// It is empty when neither location can be determined.
func ConfigPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "keyloop.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "keyloop.toml")
}

// LoadConfig reads a config file. A missing file, or an empty path, yields
// the zero Config.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		logger().Warn("unknown config keys", "path", path, "keys", fmt.Sprint(undecoded))
	}
	return cfg, nil
}

// TermSignals resolves the configured signal names. An empty list means the
// platform defaults.
func (c Config) TermSignals() ([]os.Signal, error) {
	if len(c.Signals) == 0 {
		return DefaultSignals(), nil
	}
	sigs := make([]os.Signal, 0, len(c.Signals))
	for _, name := range c.Signals {
		sig, err := ParseSignal(name)
		if err != nil {
			return nil, err
		}
		sigs = append(sigs, sig)
	}
	return sigs, nil
}

// Level returns the configured log level, defaulting to info.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}

// ParseSignal maps a signal name such as "SIGTERM" or "term" to a signal.
func ParseSignal(name string) (os.Signal, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	if !strings.HasPrefix(n, "SIG") {
		n = "SIG" + n
	}
	if sig, ok := signalNames[n]; ok {
		return sig, nil
	}
	return nil, fmt.Errorf("keyloop: unknown signal %q", name)
}
