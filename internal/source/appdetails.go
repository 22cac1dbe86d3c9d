package source

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/xtxerr/feedlog/config"
	"github.com/xtxerr/feedlog/internal/errors"
)

const appDetailsPath = "/api/appdetails"

// AppDetailsConfig configures the store lookup used to name appids.
type AppDetailsConfig struct {
	BaseURL  string
	Country  string
	Language string
}

// AppDetails looks up a game's display name on the store API.
// It implements names.Lookup.
type AppDetails struct {
	cfg  AppDetailsConfig
	http *resty.Client
}

// NewAppDetails creates the store lookup.
func NewAppDetails(cfg AppDetailsConfig, opts HTTPOptions) *AppDetails {
	if cfg.BaseURL == "" {
		cfg.BaseURL = config.DefaultAppDetailsURL
	}
	if cfg.Country == "" {
		cfg.Country = config.DefaultStoreCountry
	}
	if cfg.Language == "" {
		cfg.Language = config.DefaultStoreLanguage
	}
	return &AppDetails{cfg: cfg, http: newClient("appdetails", cfg.BaseURL, opts)}
}

type appDetailsEntry struct {
	Success bool `json:"success"`
	Data    struct {
		Name string `json:"name"`
	} `json:"data"`
}

// LookupName returns the store name of appid. Every failure wraps
// errors.ErrResolutionMiss.
func (a *AppDetails) LookupName(ctx context.Context, appid string) (string, error) {
	params := url.Values{}
	params.Set("appids", appid)
	params.Set("cc", a.cfg.Country)
	params.Set("l", a.cfg.Language)

	var body map[string]appDetailsEntry
	if err := getJSON(ctx, a.http, "appdetails", appDetailsPath, params, &body); err != nil {
		return "", fmt.Errorf("%w: %w", errors.ErrResolutionMiss, err)
	}

	entry, ok := body[appid]
	if !ok || !entry.Success {
		return "", errors.Wrapf(errors.ErrResolutionMiss, "appid %s not listed", appid)
	}
	name := strings.TrimSpace(entry.Data.Name)
	if name == "" {
		return "", errors.Wrapf(errors.ErrResolutionMiss, "appid %s has no name", appid)
	}
	return name, nil
}
