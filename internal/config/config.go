// Package config loads runtime configuration from defaults, an optional
// vv.yaml file, a .env file and VV_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Available config keys.
const (
	HTTPPort     = "http.port"
	DBPath       = "db.path"
	LogDev       = "log.dev"
	VisitsPolicy = "visits.policy"
	SessionTTL   = "session.ttl"
	CookieSecure = "cookie.secure"
)

// Config holds the resolved settings used by the server and CLI.
type Config struct {
	Port         int
	DBPath       string
	DevMode      bool
	VisitsPolicy string
	SessionTTL   time.Duration
	CookieSecure bool
}

// Load resolves configuration. configFile may be empty, in which case
// vv.yaml is looked up in the working directory and ~/.vente-voiture.
// A missing config file or .env file is not an error.
func Load(configFile string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	v.SetDefault(HTTPPort, 8080)
	v.SetDefault(DBPath, "")
	v.SetDefault(LogDev, false)
	v.SetDefault(VisitsPolicy, "permissive")
	v.SetDefault(SessionTTL, "720h")
	v.SetDefault(CookieSecure, false)

	_ = v.BindEnv(HTTPPort, "VV_HTTP_PORT", "PORT")
	_ = v.BindEnv(DBPath, "VV_DB_PATH")
	_ = v.BindEnv(LogDev, "VV_DEV_MODE")
	_ = v.BindEnv(VisitsPolicy, "VV_VISITS_POLICY")
	_ = v.BindEnv(SessionTTL, "VV_SESSION_TTL")
	_ = v.BindEnv(CookieSecure, "VV_COOKIE_SECURE")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("vv")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home + "/.vente-voiture")
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	} else {
		slog.Debug("configuration file used", "path", v.ConfigFileUsed())
	}

	cfg := Config{
		Port:         v.GetInt(HTTPPort),
		DBPath:       v.GetString(DBPath),
		DevMode:      v.GetBool(LogDev),
		VisitsPolicy: v.GetString(VisitsPolicy),
		SessionTTL:   v.GetDuration(SessionTTL),
		CookieSecure: v.GetBool(CookieSecure),
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("invalid %s: %d", HTTPPort, cfg.Port)
	}
	if cfg.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("invalid %s: %s", SessionTTL, cfg.SessionTTL)
	}

	return cfg, nil
}
