package catalog

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pelletier/go-toml/v2"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	cfg := DefaultConfig()
	if err = toml.NewDecoder(file).Decode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfig returns a config with the defaults applied; LoadConfig
// decodes the TOML file over it so absent keys keep their defaults.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:            ":8080",
			DefaultPageSize: 50,
			MaxPageSize:     100,
		},
		Scryfall: ScryfallConfig{
			BaseURL:  "https://api.scryfall.com",
			CacheDir: "data",
		},
		Sync: SyncConfig{
			Dataset: "default_cards",
		},
		Mirror: MirrorConfig{
			Parallelism: 8,
		},
	}
}

type Config struct {
	Log      LogConfig      `toml:"log"`
	DB       DBConfig       `toml:"db"`
	HTTP     HTTPConfig     `toml:"http"`
	Scryfall ScryfallConfig `toml:"scryfall"`
	Sync     SyncConfig     `toml:"sync"`
	Mirror   MirrorConfig   `toml:"mirror"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

type DBConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	PoolSize int    `toml:"pool_size"`
}

type HTTPConfig struct {
	Addr            string `toml:"addr"`
	DefaultPageSize int    `toml:"default_page_size"`
	MaxPageSize     int    `toml:"max_page_size"`
}

type ScryfallConfig struct {
	BaseURL  string `toml:"base_url"`
	CacheDir string `toml:"cache_dir"`
}

type SyncConfig struct {
	Dataset string `toml:"dataset"`
}

type MirrorConfig struct {
	Enabled     bool   `toml:"enabled"`
	Key         string `toml:"key"`
	Secret      string `toml:"secret"`
	Region      string `toml:"region"`
	Bucket      string `toml:"bucket"`
	ArtRoot     string `toml:"artroot"`
	Parallelism int    `toml:"parallelism"`
}
