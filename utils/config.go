package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Configurazione dello storage
type StorageConfig struct {
	Backend      string `json:"backend" env:"STORAGE_BACKEND"`
	Fallback     bool   `json:"fallback" env:"STORAGE_FALLBACK"`
	DataFile     string `json:"dataFile" env:"DATA_FILE"`
	DocstorePath string `json:"docstorePath" env:"DOCSTORE_PATH"`
}

// Configurazione di Baserow
type BaserowConfig struct {
	URL            string        `json:"url" env:"BASEROW_URL"`
	TableID        string        `json:"tableId" env:"BASEROW_TABLE_ID"`
	Token          string        `json:"token" env:"BASEROW_TOKEN"`
	NoSongURL      string        `json:"noSongUrl" env:"BASEROW_NO_SONG_URL"`
	ExtendedFields bool          `json:"extendedFields" env:"BASEROW_EXTENDED_FIELDS"`
	Timeout        time.Duration `json:"timeout" env:"BASEROW_TIMEOUT"`
}

// Configurazione della ricerca brani su Spotify (oEmbed). Un URL vuoto nel
// file di configurazione la disattiva
type SpotifyConfig struct {
	OEmbedURL string        `json:"oembedUrl" env:"SPOTIFY_OEMBED_URL"`
	Timeout   time.Duration `json:"timeout" env:"SPOTIFY_TIMEOUT"`
}

// Configurazione del database SQL
type DatabaseConfig struct {
	Driver string `json:"driver" env:"SQL_DRIVER"`
	DSN    string `json:"dsn" env:"SQL_DSN"`
}

// Configurazione del server
type ServerConfig struct {
	Port                int    `json:"port" env:"PORT"`
	WebDir              string `json:"webDir" env:"WEB_DIR"`
	PublicURL           string `json:"publicUrl" env:"PUBLIC_URL"`
	ModerationScript    string `json:"moderationScript" env:"MODERATION_SCRIPT"`
	RateLimitPerMinute  int    `json:"rateLimitPerMinute" env:"RATE_LIMIT_PER_MINUTE"`
	TrustedProxyHeaders bool   `json:"trustedProxyHeaders" env:"TRUST_PROXY_HEADERS"`
}

// Configurazione dei log
type LogConfig struct {
	Level  string `json:"level" env:"LOG_LEVEL"`
	Format string `json:"format" env:"LOG_FORMAT"`
}

// Configurazione completa
type Config struct {
	Storage  StorageConfig  `json:"storage"`
	Baserow  BaserowConfig  `json:"baserow"`
	Spotify  SpotifyConfig  `json:"spotify"`
	Database DatabaseConfig `json:"database"`
	Server   ServerConfig   `json:"server"`
	Log      LogConfig      `json:"log"`
}

// DefaultConfig restituisce i valori predefiniti
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend:      "file",
			DataFile:     "dedications.json",
			DocstorePath: "dedications.db",
		},
		Baserow: BaserowConfig{
			URL:     "https://api.baserow.io",
			TableID: "831485",
		},
		Spotify: SpotifyConfig{
			OEmbedURL: "https://open.spotify.com/oembed",
			Timeout:   3 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: "sqlite3",
			DSN:    "file:dedications.sqlite",
		},
		Server: ServerConfig{
			Port:               8080,
			WebDir:             "web",
			RateLimitPerMinute: 30,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig parte dai default, applica il file JSON in filePath (se
// esiste) e poi l'ambiente. Un eventuale .env nella directory corrente
// viene caricato per primo.
func LoadConfig(filePath string) (*Config, error) {
	_ = godotenv.Load(".env")

	config := DefaultConfig()

	if filePath != "" {
		file, err := os.Open(filePath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("open config file: %w", err)
		default:
			defer file.Close()
			if err := json.NewDecoder(file).Decode(config); err != nil {
				return nil, fmt.Errorf("decode config file: %w", err)
			}
		}
	}

	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate controlla i valori che non possono essere corretti in seguito
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "file", "docstore", "baserow", "sql":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.Backend == "sql" && c.Database.Driver != "mysql" && c.Database.Driver != "sqlite3" {
		return fmt.Errorf("unknown sql driver %q", c.Database.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	return nil
}

// Addr è l'indirizzo di ascolto del server HTTP
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
