package source

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/xtxerr/feedlog/config"
	"github.com/xtxerr/feedlog/internal/constants"
	"github.com/xtxerr/feedlog/internal/table"
)

const rankingsPath = "/ISteamChartsService/GetMostPlayedGames/v1/"

// RankingsConfig configures the game ranking source.
type RankingsConfig struct {
	BaseURL string
	Table   string

	// Limit keeps only the first N ranks; 0 keeps all.
	Limit int
}

// Rankings collects the most-played games chart. Display names come from
// the Resolver, which may make one extra call per unknown appid.
type Rankings struct {
	cfg      RankingsConfig
	http     *resty.Client
	resolver Resolver
	Clock    Clock
}

// NewRankings creates the rankings adapter. resolver may be nil, in which
// case the name column holds the appid.
func NewRankings(cfg RankingsConfig, resolver Resolver, opts HTTPOptions) *Rankings {
	if cfg.BaseURL == "" {
		cfg.BaseURL = config.DefaultRankingsURL
	}
	if cfg.Table == "" {
		cfg.Table = config.DefaultRankingsTable
	}
	return &Rankings{
		cfg:      cfg,
		http:     newClient(constants.SourceRankings, cfg.BaseURL, opts),
		resolver: resolver,
	}
}

func (r *Rankings) Name() string  { return constants.SourceRankings }
func (r *Rankings) Table() string { return r.cfg.Table }

type mostPlayed struct {
	Response struct {
		RollupDate any        `json:"rollup_date"`
		Ranks      []gameRank `json:"ranks"`
	} `json:"response"`
}

type gameRank struct {
	Rank         any `json:"rank"`
	AppID        any `json:"appid"`
	LastWeekRank any `json:"last_week_rank"`
	PeakInGame   any `json:"peak_in_game"`
}

// Fetch returns one record per ranked game, in chart order.
func (r *Rankings) Fetch(ctx context.Context) ([]table.Record, error) {
	var body mostPlayed
	if err := getJSON(ctx, r.http, r.Name(), rankingsPath, nil, &body); err != nil {
		return nil, err
	}

	ranks := body.Response.Ranks
	if r.cfg.Limit > 0 && len(ranks) > r.cfg.Limit {
		ranks = ranks[:r.cfg.Limit]
	}

	records, ok := normalizeRankings(ctx, ranks, r.resolver, r.Clock.now())
	if !ok {
		return nil, noEntries(r.Name(), r.http.BaseURL+rankingsPath, len(ranks))
	}
	return records, nil
}

func normalizeRankings(ctx context.Context, ranks []gameRank, resolver Resolver, at time.Time) (records []table.Record, ok bool) {
	records = make([]table.Record, 0, len(ranks))
	for _, g := range ranks {
		appID := toID(g.AppID)
		subj, has := subject("appid", appID)
		ok = ok || has

		name := table.Missing
		if has {
			id := appID.String()
			if resolver != nil {
				id = resolver.Resolve(ctx, id)
			}
			name = table.Text(id)
		}

		records = append(records, table.Record{
			CollectedAt: at,
			Subject:     subj,
			Metrics: []table.Field{
				table.F("name", name),
				table.F("rank", toInt(g.Rank)),
				table.F("last_week_rank", toInt(g.LastWeekRank)),
				table.F("players", toInt(g.PeakInGame)),
			},
		})
	}
	return records, ok
}
