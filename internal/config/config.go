// Package config loads configuration with viper: an optional YAML file plus
// environment-variable overrides, with working defaults for local
// development. Nothing outside this package reads the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Generation GenerationConfig `mapstructure:"generation"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	// TokenTTLMinutes is the bearer-credential expiry.
	TokenTTLMinutes    int    `mapstructure:"token_ttl_minutes"`
	GitHubClientID     string `mapstructure:"github_client_id"`
	GitHubClientSecret string `mapstructure:"github_client_secret"`
	GitHubCallbackURL  string `mapstructure:"github_callback_url"`
}

type StorageConfig struct {
	// DataDir is the root under which per-user artifact namespaces live.
	DataDir string `mapstructure:"data_dir"`
}

type GenerationConfig struct {
	// MaxSamples is the per-request record ceiling. It also bounds how long
	// a single generation can run, since generation is local computation.
	MaxSamples int `mapstructure:"max_samples"`
}

// TokenTTL returns the configured expiry as a duration.
func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLMinutes) * time.Minute
}

// GitHubEnabled reports whether the optional OAuth sign-in is configured.
func (a AuthConfig) GitHubEnabled() bool {
	return a.GitHubClientID != "" && a.GitHubClientSecret != ""
}

// Load reads configuration. path may be empty (env + defaults only); a
// missing file is not an error, a malformed one is.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("database.path", "data/smartsynth.db")
	v.SetDefault("auth.token_ttl_minutes", 30)
	v.SetDefault("storage.data_dir", "data/synthetic")
	v.SetDefault("generation.max_samples", 1000)

	// SMARTSYNTH_SERVER_PORT and friends override everything.
	v.SetEnvPrefix("smartsynth")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Legacy env names kept for deployment compatibility.
	v.BindEnv("server.port", "PORT")
	v.BindEnv("database.path", "DB_PATH")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("auth.token_ttl_minutes", "TOKEN_TTL_MINUTES")
	v.BindEnv("auth.github_client_id", "GITHUB_CLIENT_ID")
	v.BindEnv("auth.github_client_secret", "GITHUB_CLIENT_SECRET")
	v.BindEnv("auth.github_callback_url", "GITHUB_CALLBACK_URL")
	v.BindEnv("storage.data_dir", "DATA_DIR")
	v.BindEnv("generation.max_samples", "MAX_NUM_SAMPLES")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("config: reading %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshalling: %w", err)
	}

	if cfg.Generation.MaxSamples < 1 {
		return nil, fmt.Errorf("config: generation.max_samples must be at least 1")
	}
	return &cfg, nil
}
