package loader

import (
	"fmt"
	"strconv"
	"time"

	"github.com/xtxerr/feedlog/config"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Root Configuration
// =============================================================================

// Config is the root configuration structure.
type Config struct {
	// DataDir holds the tables and, by default, the name cache.
	DataDir string `yaml:"data_dir"`

	Log     LogConfig     `yaml:"log"`
	HTTP    HTTPConfig    `yaml:"http"`
	Names   NamesConfig   `yaml:"names"`
	Metrics MetricsConfig `yaml:"metrics"`
	Sources SourcesConfig `yaml:"sources"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// HTTPConfig applies to every outbound call.
type HTTPConfig struct {
	Timeout   Duration `yaml:"timeout"`
	UserAgent string   `yaml:"user_agent"`
}

// NamesConfig configures the name cache.
type NamesConfig struct {
	// Path of the cache file. Relative paths are resolved against DataDir.
	Path string `yaml:"path"`
}

// MetricsConfig configures the Prometheus textfile export.
type MetricsConfig struct {
	// Textfile is written after every run when set.
	Textfile string `yaml:"textfile"`
}

// =============================================================================
// Sources
// =============================================================================

// SourcesConfig holds one block per source.
type SourcesConfig struct {
	Prices     PricesSource     `yaml:"prices"`
	Rankings   RankingsSource   `yaml:"rankings"`
	Statistics StatisticsSource `yaml:"statistics"`
}

// PricesSource configures the coin price source.
type PricesSource struct {
	Enabled    bool     `yaml:"enabled"`
	URL        string   `yaml:"url"`
	Table      string   `yaml:"table"`
	VsCurrency string   `yaml:"vs_currency"`
	Coins      []string `yaml:"coins"`
}

// RankingsSource configures the game ranking source.
type RankingsSource struct {
	Enabled    bool   `yaml:"enabled"`
	URL        string `yaml:"url"`
	DetailsURL string `yaml:"details_url"`
	Table      string `yaml:"table"`
	Limit      int    `yaml:"limit"`
	Country    string `yaml:"country"`
	Language   string `yaml:"language"`
}

// StatisticsSource configures the video statistics source.
type StatisticsSource struct {
	Enabled    bool   `yaml:"enabled"`
	URL        string `yaml:"url"`
	Table      string `yaml:"table"`
	APIKey     string `yaml:"api_key"`
	Region     string `yaml:"region"`
	MaxResults int    `yaml:"max_results"`
}

// =============================================================================
// Defaults
// =============================================================================

// DefaultConfig returns a configuration with all defaults applied. Every
// source is enabled; statistics still needs an api_key to succeed.
func DefaultConfig() *Config {
	return &Config{
		DataDir: config.DefaultDataDir,
		Log: LogConfig{
			Level: "info",
		},
		HTTP: HTTPConfig{
			Timeout:   Duration(config.DefaultHTTPTimeout),
			UserAgent: config.DefaultUserAgent,
		},
		Names: NamesConfig{
			Path: config.DefaultNameCacheFile,
		},
		Sources: SourcesConfig{
			Prices: PricesSource{
				Enabled:    true,
				URL:        config.DefaultPricesURL,
				Table:      config.DefaultPricesTable,
				VsCurrency: config.DefaultVsCurrency,
				Coins:      append([]string(nil), config.DefaultCoins...),
			},
			Rankings: RankingsSource{
				Enabled:    true,
				URL:        config.DefaultRankingsURL,
				DetailsURL: config.DefaultAppDetailsURL,
				Table:      config.DefaultRankingsTable,
				Country:    config.DefaultStoreCountry,
				Language:   config.DefaultStoreLanguage,
			},
			Statistics: StatisticsSource{
				Enabled:    true,
				URL:        config.DefaultStatisticsURL,
				Table:      config.DefaultStatisticsTable,
				Region:     config.DefaultRegionCode,
				MaxResults: config.DefaultMaxResults,
			},
		},
	}
}

// =============================================================================
// Custom Types
// =============================================================================

// Duration is a time.Duration that can be unmarshaled from YAML.
// Supports "10s", "1m30s" or a plain integer number of seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", value.Line)
	}
	if value.Tag == "!!int" {
		secs, err := strconv.ParseInt(value.Value, 10, 64)
		if err != nil {
			return fmt.Errorf("line %d: %w", value.Line, err)
		}
		*d = Duration(time.Duration(secs) * time.Second)
		return nil
	}
	dur, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
