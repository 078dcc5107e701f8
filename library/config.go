package library

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config — файл настроек плеера.
type Config struct {
	MusicLibrary MusicLibrary `json:"musicLibrary" yaml:"musicLibrary"`
	Player       PlayerConfig `json:"player" yaml:"player"`
}

// MusicLibrary описывает, где искать музыку. Ключ recusiveFolders
// пишется именно так.
type MusicLibrary struct {
	Folders          []string `json:"folders" yaml:"folders"`
	RecursiveFolders []string `json:"recusiveFolders" yaml:"recusiveFolders"`
	IndividualFiles  []string `json:"individualFiles" yaml:"individualFiles"`
}

type PlayerConfig struct {
	VolumeDB float64 `json:"volumeDb" yaml:"volumeDb"`
	Stream   bool    `json:"stream" yaml:"stream"`
	Shuffle  bool    `json:"shuffle" yaml:"shuffle"`
	Watch    bool    `json:"watch" yaml:"watch"`
	TickMs   int     `json:"tickMs" yaml:"tickMs"`
}

func defaultConfig() Config {
	return Config{
		Player: PlayerConfig{Stream: true, Shuffle: true},
	}
}

// LoadConfig читает JSON или YAML (по расширению .yaml/.yml).
// Отсутствующие ключи получают значения по умолчанию.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := defaultConfig()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}
