package config

import "fmt"

// DatabaseConfig is the [database] section: the parent database settings
// plus any number of named sub-sections. Keys that are not recognized
// settings are free-form engine options passed to the database engine.
type DatabaseConfig struct {
	Activated bool   `mapstructure:"activated"`
	URI       string `mapstructure:"uri"`
	Metadata  string `mapstructure:"metadata"`
	Populate  string `mapstructure:"populate"`
	Debug     bool   `mapstructure:"debug"`

	Engine map[string]any `mapstructure:",remain"`

	Sections map[string]DatabaseSection `mapstructure:"-"`
}

// DatabaseSection is a named sub-section of [database]. Unset values
// inherit from the parent section.
type DatabaseSection struct {
	Activated *bool   `mapstructure:"activated"`
	URI       *string `mapstructure:"uri"`
	Metadata  *string `mapstructure:"metadata"`
	Populate  string  `mapstructure:"populate"`
	Debug     *bool   `mapstructure:"debug"`

	Engine map[string]any `mapstructure:",remain"`
}

// Settings is one resolved database configuration: the metadata
// reference, the connection string, the engine debug flag and the
// free-form engine options.
type Settings struct {
	Metadata string
	URI      string
	Debug    bool
	Engine   map[string]any
	Populate string
}

// decodeDatabase splits the raw section into the parent settings and the
// named sub-sections: a mapping value is a sub-section, everything else
// is a parent setting or engine option.
func decodeDatabase(raw map[string]any, report func(error)) DatabaseConfig {
	cfg := DatabaseConfig{Sections: map[string]DatabaseSection{}}
	if raw == nil {
		return cfg
	}

	flat := map[string]any{}
	for key, value := range raw {
		sub, ok := value.(map[string]any)
		if !ok {
			flat[key] = value
			continue
		}

		var section DatabaseSection
		if err := decode(sub, &section); err != nil {
			report(fmt.Errorf("[database] %s: %w", key, err))
			continue
		}
		cfg.Sections[key] = section
	}

	if err := decode(flat, &cfg); err != nil {
		report(fmt.Errorf("[database] %w", err))
	}
	return cfg
}

// Databases resolves every activated database of the configuration:
// sub-sections first, with unset values inherited from the parent
// section, then the parent section itself. A section without a metadata
// reference yields nothing. The debug argument forces engine debugging on.
func (c *Config) Databases(debug bool) []Settings {
	db := c.Database
	var out []Settings

	for _, section := range db.Sections {
		activated := db.Activated
		if section.Activated != nil {
			activated = *section.Activated
		}

		uri := db.URI
		if section.URI != nil {
			uri = *section.URI
		}
		metadata := db.Metadata
		if section.Metadata != nil {
			metadata = *section.Metadata
		}
		engineDebug := db.Debug
		if section.Debug != nil {
			engineDebug = *section.Debug
		}

		if !activated || metadata == "" {
			continue
		}
		out = append(out, Settings{
			Metadata: metadata,
			URI:      uri,
			Debug:    engineDebug || debug,
			Engine:   section.Engine,
			Populate: section.Populate,
		})
	}

	if db.Activated && db.Metadata != "" {
		out = append(out, Settings{
			Metadata: db.Metadata,
			URI:      db.URI,
			Debug:    db.Debug || debug,
			Engine:   db.Engine,
			Populate: db.Populate,
		})
	}
	return out
}
