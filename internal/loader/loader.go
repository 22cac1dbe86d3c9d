// Package loader handles configuration file loading, validation, and
// conversion into the settings each component takes.
//
// This package is responsible for:
//   - Loading YAML configuration files on top of DefaultConfig
//   - Expanding environment variables
//   - Validating the result
//   - Converting the YAML blocks into source and storage settings
package loader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xtxerr/feedlog/internal/errors"
	"github.com/xtxerr/feedlog/internal/logging"
	"github.com/xtxerr/feedlog/internal/source"
	"github.com/xtxerr/feedlog/internal/validation"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Load
// =============================================================================

// Load loads configuration from a YAML file on top of DefaultConfig.
// A missing file is returned as an error matching fs.ErrNotExist; callers
// that treat the file as optional check for it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration on top of DefaultConfig.
func Parse(data []byte) (*Config, error) {
	// ${VAR} and $VAR are expanded before parsing so secrets such as the
	// statistics api_key can stay out of the file.
	expanded := os.ExpandEnv(string(data))

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: parse config: %v", errors.ErrInvalidConfig, err)
	}
	return cfg, nil
}

// =============================================================================
// Validate
// =============================================================================

// Validate validates the configuration, reporting every problem at once.
func Validate(cfg *Config) error {
	errs := errors.NewValidationErrors()

	if strings.TrimSpace(cfg.DataDir) == "" {
		errs.AddMissing("data_dir")
	}
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		errs.AddField("log.level", err.Error())
	}
	if cfg.HTTP.Timeout.Duration() <= 0 {
		errs.AddField("http.timeout", "must be positive")
	}
	if cfg.Names.Path == "" {
		errs.AddMissing("names.path")
	}

	p := cfg.Sources.Prices
	if p.Enabled {
		checkURL(errs, "sources.prices.url", p.URL)
		checkTable(errs, "sources.prices.table", p.Table)
		if p.VsCurrency == "" {
			errs.AddMissing("sources.prices.vs_currency")
		}
		if len(p.Coins) == 0 {
			errs.AddField("sources.prices.coins", "at least one coin is required")
		}
		for i, c := range p.Coins {
			if err := validation.ValidateCoinID(c); err != nil {
				errs.AddField(fmt.Sprintf("sources.prices.coins[%d]", i), err.Error())
			}
		}
	}

	r := cfg.Sources.Rankings
	if r.Enabled {
		checkURL(errs, "sources.rankings.url", r.URL)
		checkURL(errs, "sources.rankings.details_url", r.DetailsURL)
		checkTable(errs, "sources.rankings.table", r.Table)
		if r.Limit < 0 {
			errs.AddField("sources.rankings.limit", "cannot be negative")
		}
	}

	s := cfg.Sources.Statistics
	if s.Enabled {
		checkURL(errs, "sources.statistics.url", s.URL)
		checkTable(errs, "sources.statistics.table", s.Table)
		if s.MaxResults < 1 || s.MaxResults > 50 {
			errs.AddField("sources.statistics.max_results", "must be between 1 and 50")
		}
	}

	// Two sources appending to one table would interleave unrelated rows.
	seen := map[string]string{}
	for _, t := range []struct {
		field   string
		enabled bool
		name    string
	}{
		{"sources.prices.table", p.Enabled, p.Table},
		{"sources.rankings.table", r.Enabled, r.Table},
		{"sources.statistics.table", s.Enabled, s.Table},
	} {
		if !t.enabled || t.name == "" {
			continue
		}
		if first, dup := seen[t.name]; dup {
			errs.AddField(t.field, fmt.Sprintf("table %q already used by %s", t.name, first))
			continue
		}
		seen[t.name] = t.field
	}

	return errs.Err()
}

func checkURL(errs *errors.ValidationErrors, field, raw string) {
	if raw == "" {
		errs.AddMissing(field)
		return
	}
	if err := validation.ValidateBaseURL(raw); err != nil {
		errs.AddField(field, err.Error())
	}
}

func checkTable(errs *errors.ValidationErrors, field, name string) {
	if name == "" {
		errs.AddMissing(field)
		return
	}
	if err := validation.ValidateTableName(name); err != nil {
		errs.AddField(field, err.Error())
	}
}

// =============================================================================
// Conversion: Config → component settings
// =============================================================================

// NamesPath returns the name cache path, resolved against DataDir.
func (c *Config) NamesPath() string {
	if filepath.IsAbs(c.Names.Path) {
		return c.Names.Path
	}
	return filepath.Join(c.DataDir, c.Names.Path)
}

// HTTPOptions returns the client settings shared by all sources.
func (c *Config) HTTPOptions() source.HTTPOptions {
	return source.HTTPOptions{
		Timeout:   c.HTTP.Timeout.Duration(),
		UserAgent: c.HTTP.UserAgent,
	}
}

// PricesConfig converts the prices block.
func (c *Config) PricesConfig() source.PricesConfig {
	p := c.Sources.Prices
	return source.PricesConfig{
		BaseURL:    p.URL,
		Table:      p.Table,
		VsCurrency: p.VsCurrency,
		Coins:      p.Coins,
	}
}

// RankingsConfig converts the rankings block.
func (c *Config) RankingsConfig() source.RankingsConfig {
	r := c.Sources.Rankings
	return source.RankingsConfig{BaseURL: r.URL, Table: r.Table, Limit: r.Limit}
}

// AppDetailsConfig converts the name lookup part of the rankings block.
func (c *Config) AppDetailsConfig() source.AppDetailsConfig {
	r := c.Sources.Rankings
	return source.AppDetailsConfig{BaseURL: r.DetailsURL, Country: r.Country, Language: r.Language}
}

// StatisticsConfig converts the statistics block.
func (c *Config) StatisticsConfig() source.StatisticsConfig {
	s := c.Sources.Statistics
	return source.StatisticsConfig{
		BaseURL:    s.URL,
		Table:      s.Table,
		APIKey:     s.APIKey,
		Region:     s.Region,
		MaxResults: s.MaxResults,
	}
}
