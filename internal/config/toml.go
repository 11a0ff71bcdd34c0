// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/keystat/internal/model"
)

// Input sources understood by the report.
const (
	SourceKeybr = "keybr"
	SourceTuipe = "tuipe"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Report ReportFileConfig `toml:"report"`
}

// ReportFileConfig maps report-related settings. Nil fields are unset.
type ReportFileConfig struct {
	Source     *string             `toml:"source"`
	DataFile   *string             `toml:"data-file"`
	SourceDir  *string             `toml:"source-dir"`
	DBPath     *string             `toml:"db"`
	ShowAll    *bool               `toml:"show-all"`
	AllWPMCap  *float64            `toml:"all-wpm-cap"`
	Thresholds []float64           `toml:"thresholds"`
	OpenedKeys []string            `toml:"opened-keys"`
	FocusKeys  []string            `toml:"focus-keys"`
	LockedKeys map[string][]string `toml:"locked-keys"`
}

// DefaultOpenedKeys are the key groups unlocked in a fresh training setup.
var DefaultOpenedKeys = []string{
	"abcdefghijklmnopqrstuvwxyz",
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ",
	"; : . ,",
	"_ ' \" ( ) [ ] { }",
	"/ + - = * < >",
	"? ! @ % & | # ~",
	"1 2 3 4 5 7 8 9 0",
}

// DefaultFocusKeys are the keys currently being drilled.
var DefaultFocusKeys = []string{"\" ) 4 5 6 8 0"}

// DefaultLockedKeys groups keys not yet introduced, by tier label.
var DefaultLockedKeys = map[string][]string{
	"Tier 3 (Advanced)": {"^"},
}

// DefaultReport returns the report settings used when neither flags nor the
// config file set a value.
func DefaultReport() model.ReportConfig {
	locked := make(map[string][]string, len(DefaultLockedKeys))
	for tier, groups := range DefaultLockedKeys {
		locked[tier] = append([]string(nil), groups...)
	}
	return model.ReportConfig{
		Source:     SourceKeybr,
		SourceDir:  "",
		DBPath:     DefaultTuipeDBPath(),
		Thresholds: []float64{100, 97, 95},
		OpenedKeys: append([]string(nil), DefaultOpenedKeys...),
		FocusKeys:  append([]string(nil), DefaultFocusKeys...),
		LockedKeys: locked,
	}
}

// Merge overlays the file values that are set onto cfg.
func (f ReportFileConfig) Merge(cfg *model.ReportConfig) {
	if f.Source != nil {
		cfg.Source = *f.Source
	}
	if f.DataFile != nil {
		cfg.DataFile = *f.DataFile
	}
	if f.SourceDir != nil {
		cfg.SourceDir = *f.SourceDir
	}
	if f.DBPath != nil {
		cfg.DBPath = *f.DBPath
	}
	if f.ShowAll != nil {
		cfg.ShowAll = *f.ShowAll
	}
	if f.AllWPMCap != nil {
		cfg.AllWPMCap = *f.AllWPMCap
	}
	if f.Thresholds != nil {
		cfg.Thresholds = append([]float64(nil), f.Thresholds...)
	}
	if f.OpenedKeys != nil {
		cfg.OpenedKeys = append([]string(nil), f.OpenedKeys...)
	}
	if f.FocusKeys != nil {
		cfg.FocusKeys = append([]string(nil), f.FocusKeys...)
	}
	if f.LockedKeys != nil {
		cfg.LockedKeys = f.LockedKeys
	}
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// Validate checks the merged report settings.
func Validate(cfg model.ReportConfig) error {
	switch cfg.Source {
	case SourceKeybr, SourceTuipe:
	default:
		return fmt.Errorf("--source must be %q or %q", SourceKeybr, SourceTuipe)
	}
	if cfg.AllWPMCap < 0 {
		return fmt.Errorf("--all-wpm-cap must be >= 0")
	}
	if len(cfg.Thresholds) == 0 {
		return fmt.Errorf("--threshold must not be empty")
	}
	for _, th := range cfg.Thresholds {
		if th < 0 || th > 100 {
			return fmt.Errorf("--threshold must be between 0 and 100")
		}
	}
	if cfg.Source == SourceTuipe && cfg.DBPath == "" {
		return fmt.Errorf("--db must not be empty")
	}
	return nil
}
