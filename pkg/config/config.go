// Package config reads and validates application configuration files.
//
// Validation problems are reported through a caller-supplied callback
// instead of aborting on the first one, so a misconfigured deployment
// surfaces every problem in a single run.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cascadeweb/cascade/pkg/registry"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// ApplicationConfig is the [application] section.
type ApplicationConfig struct {
	// App is the registered application name (the factory entry point).
	App string `mapstructure:"app"`

	// Name is the url name the application is served under.
	Name string `mapstructure:"name"`

	Debug             bool `mapstructure:"debug"`
	RedirectAfterPost bool `mapstructure:"redirect_after_post"`

	// Static and Data are the directories of the static contents and the
	// data files. They default to "static" and "data" next to the
	// configuration file.
	Static string `mapstructure:"static"`
	Data   string `mapstructure:"data"`
}

// SessionsConfig is the [sessions] section.
type SessionsConfig struct {
	// Type selects the session record store: "memory" (default) or "redis".
	Type string `mapstructure:"type"`

	TTL time.Duration `mapstructure:"ttl"`

	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig holds the redis connection settings for session records.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LoggingConfig is the [logging] section.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config is the validated application configuration.
type Config struct {
	Application ApplicationConfig
	Database    DatabaseConfig
	Sessions    SessionsConfig
	Logging     LoggingConfig
}

// Application bundles everything needed to assemble an application from
// a configuration file.
type Application struct {
	ConfigFile string
	Factory    registry.Factory
	Project    string
	Config     *Config
}

// ReadApplicationOptions reads and validates the configuration file.
// Validation problems go through report; the returned error covers only
// an unreadable or unparseable file. Values from defaults apply under
// the file's own settings.
func ReadApplicationOptions(path string, report func(error), defaults map[string]any) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}

	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", path, err)
	}
	raw = merge(defaults, raw)

	// The database section mixes known settings, free-form engine options
	// and named sub-sections; it gets its own decoding pass.
	dbRaw, _ := raw["database"].(map[string]any)
	delete(raw, "database")

	cfg := &Config{}
	if err := decode(raw["application"], &cfg.Application); err != nil {
		report(fmt.Errorf("[application] %w", err))
	}
	if err := decode(raw["sessions"], &cfg.Sessions); err != nil {
		report(fmt.Errorf("[sessions] %w", err))
	}
	if err := decode(raw["logging"], &cfg.Logging); err != nil {
		report(fmt.Errorf("[logging] %w", err))
	}
	cfg.Database = decodeDatabase(dbRaw, report)

	applyDefaults(cfg, filepath.Dir(path))
	validate(cfg, report)

	return cfg, nil
}

// ReadApplication reads the configuration file and resolves the
// application factory it names.
func ReadApplication(path string, report func(error)) (*Application, error) {
	cfg, err := ReadApplicationOptions(path, report, nil)
	if err != nil {
		return nil, err
	}

	factory, project, err := registry.Load(cfg.Application.App)
	if err != nil {
		report(err)
		return nil, err
	}

	return &Application{
		ConfigFile: path,
		Factory:    factory,
		Project:    project,
		Config:     cfg,
	}, nil
}

func decode(raw any, out any) error {
	if raw == nil {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
		Result:     out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// merge overlays values from over on top of under, descending into maps.
func merge(under, over map[string]any) map[string]any {
	if under == nil {
		return over
	}
	out := map[string]any{}
	for k, v := range under {
		out[k] = v
	}
	for k, v := range over {
		if om, ok := v.(map[string]any); ok {
			if um, ok := out[k].(map[string]any); ok {
				out[k] = merge(um, om)
				continue
			}
		}
		out[k] = v
	}
	return out
}

func applyDefaults(cfg *Config, here string) {
	if cfg.Application.Name == "" {
		cfg.Application.Name = cfg.Application.App
	}
	if cfg.Application.Static == "" {
		cfg.Application.Static = filepath.Join(here, "static")
	}
	if cfg.Application.Data == "" {
		cfg.Application.Data = filepath.Join(here, "data")
	}
	if cfg.Sessions.Type == "" {
		cfg.Sessions.Type = "memory"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

func validate(cfg *Config, report func(error)) {
	if cfg.Application.App == "" {
		report(fmt.Errorf("[application] app: no application name given"))
	} else if _, _, err := registry.Load(cfg.Application.App); err != nil {
		names := registry.Default.Names()
		report(fmt.Errorf("[application] app: %q is not registered (known: %s)",
			cfg.Application.App, strings.Join(names, ", ")))
	}

	switch cfg.Sessions.Type {
	case "memory", "redis":
	default:
		report(fmt.Errorf("[sessions] type: %q is not one of memory, redis", cfg.Sessions.Type))
	}
	if cfg.Sessions.Type == "redis" && cfg.Sessions.Redis.Addr == "" {
		report(fmt.Errorf("[sessions] redis.addr: required for redis sessions"))
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
		report(fmt.Errorf("[logging] level: %w", err))
	}
	switch cfg.Logging.Format {
	case "text", "json":
	default:
		report(fmt.Errorf("[logging] format: %q is not one of text, json", cfg.Logging.Format))
	}
}

// SlogLevel returns the configured slog level, info when unparseable.
func (c LoggingConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}
