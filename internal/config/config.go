// Package config resolves dealboard settings from defaults, an optional
// config file, DEALBOARD_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "DEALBOARD"

// Keys, shared by viper, env vars (DEALBOARD_<KEY>) and flags (dashes for
// underscores).
const (
	KeyDB            = "db"
	KeyRemote        = "remote"
	KeyToken         = "token"
	KeyJWTSecret     = "jwt_secret"
	KeyRedisURL      = "redis_url"
	KeyCacheTTL      = "cache_ttl"
	KeyFrame         = "frame"
	KeyDispatchLimit = "dispatch_limit"
	KeyLogLevel      = "log_level"
	KeyAddr          = "addr"
)

// Config holds runtime settings for the CLI, the board and the API server.
type Config struct {
	DB            string
	Remote        string
	Token         string
	JWTSecret     string
	RedisURL      string
	CacheTTL      time.Duration
	Frame         time.Duration
	DispatchLimit int
	LogLevel      string
	Addr          string
}

// Default returns the built-in settings. The store lives in
// ~/.dealboard/dealboard.db when the home directory is known.
func Default() Config {
	dbPath := "dealboard.db"
	if home, err := os.UserHomeDir(); err == nil {
		dbPath = filepath.Join(home, ".dealboard", "dealboard.db")
	}
	return Config{
		DB:            dbPath,
		CacheTTL:      30 * time.Second,
		Frame:         16 * time.Millisecond,
		DispatchLimit: 8,
		LogLevel:      "warn",
		Addr:          ":8080",
	}
}

// New returns a viper instance with defaults and env binding set up. When
// configFile is empty, DEALBOARD_CONFIG is consulted, then config.yaml in
// ~/.dealboard and the working directory.
func New(configFile string) *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	d := Default()
	v.SetDefault(KeyDB, d.DB)
	v.SetDefault(KeyRemote, d.Remote)
	v.SetDefault(KeyToken, d.Token)
	v.SetDefault(KeyJWTSecret, d.JWTSecret)
	v.SetDefault(KeyRedisURL, d.RedisURL)
	v.SetDefault(KeyCacheTTL, d.CacheTTL)
	v.SetDefault(KeyFrame, d.Frame)
	v.SetDefault(KeyDispatchLimit, d.DispatchLimit)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyAddr, d.Addr)

	if configFile == "" {
		configFile = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".dealboard"))
		}
		v.AddConfigPath(".")
	}
	return v
}

// BindFlags binds every flag in fs whose name matches a key, with dashes
// standing in for underscores (--log-level -> log_level).
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		key := strings.ReplaceAll(f.Name, "-", "_")
		if bindErr := v.BindPFlag(key, f); bindErr != nil {
			err = fmt.Errorf("binding flag %s: %w", f.Name, bindErr)
		}
	})
	return err
}

// Load reads the config file, if any, and resolves the settings. A missing
// config file is only an error when one was named explicitly.
func Load(v *viper.Viper) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := Config{
		DB:            v.GetString(KeyDB),
		Remote:        strings.TrimRight(v.GetString(KeyRemote), "/"),
		Token:         v.GetString(KeyToken),
		JWTSecret:     v.GetString(KeyJWTSecret),
		RedisURL:      v.GetString(KeyRedisURL),
		CacheTTL:      v.GetDuration(KeyCacheTTL),
		Frame:         v.GetDuration(KeyFrame),
		DispatchLimit: v.GetInt(KeyDispatchLimit),
		LogLevel:      v.GetString(KeyLogLevel),
		Addr:          v.GetString(KeyAddr),
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings no component can run with.
func (c Config) Validate() error {
	if c.Remote == "" && c.DB == "" {
		return fmt.Errorf("either %s or %s must be set", KeyDB, KeyRemote)
	}
	if c.Frame <= 0 {
		return fmt.Errorf("%s must be positive, got %s", KeyFrame, c.Frame)
	}
	if c.DispatchLimit <= 0 {
		return fmt.Errorf("%s must be positive, got %d", KeyDispatchLimit, c.DispatchLimit)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("%s must not be negative", KeyCacheTTL)
	}
	return nil
}
