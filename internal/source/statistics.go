package source

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/xtxerr/feedlog/config"
	"github.com/xtxerr/feedlog/internal/constants"
	"github.com/xtxerr/feedlog/internal/errors"
	"github.com/xtxerr/feedlog/internal/table"
)

const statisticsPath = "/youtube/v3/videos"

// StatisticsConfig configures the video statistics source.
type StatisticsConfig struct {
	BaseURL    string
	Table      string
	APIKey     string
	Region     string
	MaxResults int
}

// Statistics collects view, like and comment counts of the most popular
// videos in one region.
type Statistics struct {
	cfg   StatisticsConfig
	http  *resty.Client
	Clock Clock
}

// NewStatistics creates the statistics adapter.
func NewStatistics(cfg StatisticsConfig, opts HTTPOptions) *Statistics {
	if cfg.BaseURL == "" {
		cfg.BaseURL = config.DefaultStatisticsURL
	}
	if cfg.Table == "" {
		cfg.Table = config.DefaultStatisticsTable
	}
	if cfg.Region == "" {
		cfg.Region = config.DefaultRegionCode
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = config.DefaultMaxResults
	}
	return &Statistics{cfg: cfg, http: newClient(constants.SourceStatistics, cfg.BaseURL, opts)}
}

func (s *Statistics) Name() string  { return constants.SourceStatistics }
func (s *Statistics) Table() string { return s.cfg.Table }

type videoList struct {
	Items []video `json:"items"`
}

type video struct {
	ID      any `json:"id"`
	Snippet struct {
		Title        any `json:"title"`
		ChannelTitle any `json:"channelTitle"`
	} `json:"snippet"`
	Statistics struct {
		ViewCount    any `json:"viewCount"`
		LikeCount    any `json:"likeCount"`
		CommentCount any `json:"commentCount"`
	} `json:"statistics"`
}

// Fetch returns one record per video in chart order. Without an API key it
// fails before making any call.
func (s *Statistics) Fetch(ctx context.Context) ([]table.Record, error) {
	if s.cfg.APIKey == "" {
		return nil, errors.NewUpstream(s.Name(), s.http.BaseURL+statisticsPath, 0,
			errors.Wrap(errors.ErrNotConfigured, "api key is empty"))
	}

	params := url.Values{}
	params.Set("part", "snippet,statistics")
	params.Set("chart", "mostPopular")
	params.Set("regionCode", s.cfg.Region)
	params.Set("maxResults", strconv.Itoa(s.cfg.MaxResults))
	params.Set("key", s.cfg.APIKey)

	var body videoList
	if err := getJSON(ctx, s.http, s.Name(), statisticsPath, params, &body); err != nil {
		return nil, err
	}

	records, ok := normalizeStatistics(body.Items, s.Clock.now())
	if !ok {
		return nil, noEntries(s.Name(), s.http.BaseURL+statisticsPath, len(body.Items))
	}
	return records, nil
}

func normalizeStatistics(items []video, at time.Time) (records []table.Record, ok bool) {
	records = make([]table.Record, 0, len(items))
	for _, v := range items {
		subj, has := subject("video_id", toText(v.ID))
		ok = ok || has
		records = append(records, table.Record{
			CollectedAt: at,
			Subject:     subj,
			Metrics: []table.Field{
				table.F("title", toText(v.Snippet.Title)),
				table.F("channel", toText(v.Snippet.ChannelTitle)),
				table.F("views", toInt(v.Statistics.ViewCount)),
				table.F("likes", toInt(v.Statistics.LikeCount)),
				table.F("comments", toInt(v.Statistics.CommentCount)),
			},
		})
	}
	return records, ok
}
