package notices

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/school-portal-api/internal/metrics"
	"github.com/JakeFAU/school-portal-api/internal/school"
)

// DefaultLimit is the number of notices served per request.
const DefaultLimit = 10

// ErrUpstreamStatus reports a non-2xx response from the sheet export.
var ErrUpstreamStatus = errors.New("unexpected upstream status")

// Result is the outcome of one fetch-and-parse of the sheet.
type Result struct {
	Notices []school.Notice
	Err     error
}

// SourceConfig configures a Source.
type SourceConfig struct {
	URL   string
	Limit int
}

// Source serves notices read live from the sheet.
type Source struct {
	fetcher school.Fetcher
	parser  Parser
	cfg     SourceConfig
	logger  *zap.Logger
}

// NewSource wires a Source. A nil logger disables logging.
func NewSource(fetcher school.Fetcher, cfg SourceConfig, logger *zap.Logger) *Source {
	metrics.Init()
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	s := &Source{
		fetcher: fetcher,
		cfg:     cfg,
		logger:  logger,
	}
	s.parser = Parser{OnSkip: s.onSkip}
	return s
}

// Fetch downloads and parses the sheet without substituting the fallback.
func (s *Source) Fetch(ctx context.Context) Result {
	resp, err := s.fetcher.Fetch(ctx, school.FetchRequest{
		URL:     s.cfg.URL,
		Headers: http.Header{"Accept": {"text/csv"}},
	})
	if err != nil {
		return Result{Err: fmt.Errorf("fetch notices: %w", err)}
	}
	s.logger.Debug("notice sheet fetched",
		zap.String("final_url", resp.URL),
		zap.Int("status", resp.StatusCode),
		zap.String("content_type", resp.Headers.Get("Content-Type")),
		zap.Duration("upstream_duration", resp.Duration),
	)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{Err: fmt.Errorf("fetch notices: %w: %d", ErrUpstreamStatus, resp.StatusCode)}
	}
	items, err := Collect(s.parser.Notices(bytes.NewReader(resp.Body)), s.cfg.Limit)
	if err != nil {
		return Result{Err: fmt.Errorf("parse notices: %w", err)}
	}
	return Result{Notices: items}
}

// Notices implements school.NoticeSource. Any failure is logged and replaced
// by the fallback notices.
func (s *Source) Notices(ctx context.Context) []school.Notice {
	start := time.Now()
	res := s.Fetch(ctx)
	if res.Err != nil {
		s.logger.Error("notices unavailable, serving fallback",
			zap.String("url", s.cfg.URL),
			zap.Error(res.Err),
		)
		metrics.ObserveNoticeFetch(s.cfg.URL, metrics.OutcomeFallback, time.Since(start))
		return Fallback()
	}
	metrics.ObserveNoticeFetch(s.cfg.URL, metrics.OutcomeLive, time.Since(start))
	return res.Notices
}

func (s *Source) onSkip(line int) {
	metrics.ObserveNoticeRowSkipped()
	s.logger.Debug("skipping notice row without title or date", zap.Int("line", line))
}
