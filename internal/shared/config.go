package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Sync        SyncConfig        `toml:"sync"`
	Matching    MatchingConfig    `toml:"matching"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Discogs    DiscogsConfig    `toml:"discogs"`
	Spotify    SpotifyConfig    `toml:"spotify"`
	SoundCloud SoundCloudConfig `toml:"soundcloud"`
}

// DiscogsConfig contains the Discogs personal access token.
type DiscogsConfig struct {
	Token string `toml:"token"`
}

// SpotifyConfig contains Spotify OAuth application credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// SoundCloudConfig contains SoundCloud OAuth application credentials.
type SoundCloudConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// SyncConfig contains sync engine settings.
type SyncConfig struct {
	PlaylistPrefix       string  `toml:"playlist_prefix"`
	MinConfidence        float64 `toml:"min_confidence"`
	HighConfidence       float64 `toml:"high_confidence"`
	CacheTTLDays         int     `toml:"cache_ttl_days"`
	Workers              int     `toml:"workers"`
	SearchLimit          int     `toml:"search_limit"`
	RateLimit            float64 `toml:"rate_limit"`
	SearchTimeoutSeconds int     `toml:"search_timeout_seconds"`
}

// CacheTTL returns the cache staleness window as a [time.Duration].
func (s SyncConfig) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLDays) * 24 * time.Hour
}

// SearchTimeout returns the per-search timeout as a [time.Duration].
func (s SyncConfig) SearchTimeout() time.Duration {
	return time.Duration(s.SearchTimeoutSeconds) * time.Second
}

// MatchingConfig contains the scorer weights. All weights are tunable; the
// defaults live in the embedded example config.
type MatchingConfig struct {
	ArtistWeight         float64 `toml:"artist_weight"`
	TitleWeight          float64 `toml:"title_weight"`
	VerifiedWeight       float64 `toml:"verified_weight"`
	PopularityWeight     float64 `toml:"popularity_weight"`
	VersionBonusWeight   float64 `toml:"version_bonus_weight"`
	VersionPenaltyWeight float64 `toml:"version_penalty_weight"`
}

// LoadConfig reads and parses a TOML configuration file from the specified
// path, then overlays secrets from the environment (a .env file is loaded
// first when present, so tokens never have to live in config.toml).
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyEnv()
	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the
// embedded example config, with the environment overlay applied.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.applyEnv()
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnv overlays credential fields from the environment. Environment
// values win over file values so deployments can rotate tokens without
// touching config.toml.
func (c *Config) applyEnv() {
	// Missing .env is fine; the process environment still applies.
	_ = godotenv.Load()

	overlay(&c.Credentials.Discogs.Token, "DISCOGS_TOKEN")
	overlay(&c.Credentials.Spotify.ClientID, "SPOTIFY_CLIENT_ID")
	overlay(&c.Credentials.Spotify.ClientSecret, "SPOTIFY_CLIENT_SECRET")
	overlay(&c.Credentials.Spotify.RedirectURI, "SPOTIFY_REDIRECT_URI")
	overlay(&c.Credentials.SoundCloud.ClientID, "SOUNDCLOUD_CLIENT_ID")
	overlay(&c.Credentials.SoundCloud.ClientSecret, "SOUNDCLOUD_CLIENT_SECRET")
	overlay(&c.Credentials.SoundCloud.RedirectURI, "SOUNDCLOUD_REDIRECT_URI")
}

func overlay(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}
