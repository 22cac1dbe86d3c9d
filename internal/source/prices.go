package source

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/xtxerr/feedlog/config"
	"github.com/xtxerr/feedlog/internal/constants"
	"github.com/xtxerr/feedlog/internal/table"
)

const pricesPath = "/coins/markets"

// PricesConfig configures the coin price source.
type PricesConfig struct {
	BaseURL    string
	Table      string
	VsCurrency string
	Coins      []string
}

// Prices collects market data for a fixed coin list in one batched call.
type Prices struct {
	cfg   PricesConfig
	http  *resty.Client
	Clock Clock
}

// NewPrices creates the prices adapter.
func NewPrices(cfg PricesConfig, opts HTTPOptions) *Prices {
	if cfg.BaseURL == "" {
		cfg.BaseURL = config.DefaultPricesURL
	}
	if cfg.Table == "" {
		cfg.Table = config.DefaultPricesTable
	}
	if cfg.VsCurrency == "" {
		cfg.VsCurrency = config.DefaultVsCurrency
	}
	if len(cfg.Coins) == 0 {
		cfg.Coins = config.DefaultCoins
	}
	return &Prices{cfg: cfg, http: newClient(constants.SourcePrices, cfg.BaseURL, opts)}
}

func (p *Prices) Name() string  { return constants.SourcePrices }
func (p *Prices) Table() string { return p.cfg.Table }

// coinMarket is one element of the markets listing.
type coinMarket struct {
	ID        any `json:"id"`
	Price     any `json:"current_price"`
	Change24h any `json:"price_change_percentage_24h"`
	Change7d  any `json:"price_change_percentage_7d_in_currency"`
	MarketCap any `json:"market_cap"`
}

// Fetch returns one record per coin, in the order the API ranks them.
func (p *Prices) Fetch(ctx context.Context) ([]table.Record, error) {
	params := url.Values{}
	params.Set("vs_currency", p.cfg.VsCurrency)
	params.Set("ids", strings.Join(p.cfg.Coins, ","))
	params.Set("order", "market_cap_desc")
	params.Set("per_page", strconv.Itoa(len(p.cfg.Coins)))
	params.Set("page", "1")
	params.Set("sparkline", "false")
	params.Set("price_change_percentage", "24h,7d")

	var body []coinMarket
	if err := getJSON(ctx, p.http, p.Name(), pricesPath, params, &body); err != nil {
		return nil, err
	}

	records, ok := normalizePrices(body, p.Clock.now())
	if !ok {
		return nil, noEntries(p.Name(), p.http.BaseURL+pricesPath, len(body))
	}
	return records, nil
}

// normalizePrices maps the listing to records. ok is false when no entry
// has an id.
func normalizePrices(body []coinMarket, at time.Time) (records []table.Record, ok bool) {
	records = make([]table.Record, 0, len(body))
	for _, c := range body {
		subj, has := subject("name", toText(c.ID))
		ok = ok || has
		records = append(records, table.Record{
			CollectedAt: at,
			Subject:     subj,
			Metrics: []table.Field{
				table.F("price", toFloat(c.Price)),
				table.F("change_24h", toFloat(c.Change24h)),
				table.F("change_7d", toFloat(c.Change7d)),
				table.F("market_cap", toFloat(c.MarketCap)),
			},
		})
	}
	return records, ok
}
