// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Report  ReportConfig  `toml:"report"`
	Browse  BrowseConfig  `toml:"browse"`
	Serve   ServeConfig   `toml:"serve"`
	Archive ArchiveConfig `toml:"archive"`
}

// ReportConfig maps rendering settings shared by every view.
type ReportConfig struct {
	Data          *string `toml:"data"`
	Locale        *string `toml:"locale"`
	CharacterSort *string `toml:"character-sort"`
	HideEmpty     *bool   `toml:"hide-empty"`
	HideUntimed   *bool   `toml:"hide-untimed"`
	Title         *string `toml:"title"`
}

// BrowseConfig maps terminal browser settings.
type BrowseConfig struct {
	Tab *string `toml:"tab"`
}

// ServeConfig maps HTTP server settings.
type ServeConfig struct {
	Addr *string `toml:"addr"`
	Mode *string `toml:"mode"`
}

// ArchiveConfig maps report archive settings.
type ArchiveConfig struct {
	Dir               *string `toml:"dir"`
	DateFolders       *bool   `toml:"date-folders"`
	MaxFiles          *int    `toml:"max-files"`
	CompressAfterDays *int    `toml:"compress-after-days"`
	DeleteAfterDays   *int    `toml:"delete-after-days"`
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
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
