// Date: Oct 18th 2026
// Project: A Recursive SVAR Analysis of US Monetary Policy Shocks

// Package fred reads observation series from the FRED REST API.
package fred

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"Monetary_SVAR_Project/internal/logger"
	"Monetary_SVAR_Project/internal/series"
)

// ErrSourceUnavailable covers every way a live fetch can fail: missing
// credentials, transport errors, non-200 replies and undecodable payloads.
var ErrSourceUnavailable = errors.New("fred: source unavailable")

// ErrSessionClosed is returned by Fetch after Close.
var ErrSessionClosed = errors.New("fred: session closed")

const (
	DefaultBaseURL           = "https://api.stlouisfed.org/fred"
	DefaultTimeout           = 30 * time.Second
	DefaultRequestsPerMinute = 120

	dateLayout = "2006-01-02"
	// FRED marks missing observations with a single dot
	missingValue = "."
)

type Config struct {
	APIKey            string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerMinute int
}

// Client holds credentials and a request limiter shared by its sessions.
type Client struct {
	cfg     Config
	limiter *rate.Limiter
	log     *logger.Logger
}

func NewClient(cfg Config, log *logger.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = DefaultRequestsPerMinute
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1),
		log:     log.With(logger.String("component", "fred")),
	}
}

// Session is one connection scope against the API. It owns its transport so
// Close releases every pooled connection it opened.
type Session struct {
	c         *Client
	transport *http.Transport
	http      *http.Client

	mu     sync.Mutex
	closed bool
}

// Open starts a session. It fails with ErrSourceUnavailable when no API key
// is configured.
func (c *Client) Open(ctx context.Context) (*Session, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: api key not configured", ErrSourceUnavailable)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	return &Session{
		c:         c,
		transport: transport,
		http: &http.Client{
			Timeout:   c.cfg.Timeout,
			Transport: transport,
		},
	}, nil
}

// Close releases the session's connections. Safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.transport.CloseIdleConnections()
	return nil
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type observationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

type errorResponse struct {
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// Fetch downloads series id between start and end inclusive. Missing
// observations are skipped.
func (s *Session) Fetch(ctx context.Context, id string, start, end time.Time) (series.Series, error) {
	if s.Closed() {
		return series.Series{}, ErrSessionClosed
	}
	if err := s.c.limiter.Wait(ctx); err != nil {
		return series.Series{}, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, id, err)
	}

	q := url.Values{}
	q.Set("series_id", id)
	q.Set("observation_start", start.Format(dateLayout))
	q.Set("observation_end", end.Format(dateLayout))
	q.Set("file_type", "json")
	q.Set("api_key", s.c.cfg.APIKey)
	endpoint := s.c.cfg.BaseURL + "/series/observations?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return series.Series{}, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, id, err)
	}

	began := time.Now()
	resp, err := s.http.Do(req)
	if err != nil {
		// the url carries the api key
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return series.Series{}, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(body, &apiErr) == nil && apiErr.ErrorMessage != "" {
			return series.Series{}, fmt.Errorf("%w: %s: unexpected status %s: %s", ErrSourceUnavailable, id, resp.Status, apiErr.ErrorMessage)
		}
		return series.Series{}, fmt.Errorf("%w: %s: unexpected status %s", ErrSourceUnavailable, id, resp.Status)
	}

	var payload observationsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return series.Series{}, fmt.Errorf("%w: decode %s response: %v", ErrSourceUnavailable, id, err)
	}

	dates := make([]time.Time, 0, len(payload.Observations))
	values := make([]float64, 0, len(payload.Observations))
	skipped := 0
	for _, o := range payload.Observations {
		if strings.TrimSpace(o.Value) == missingValue {
			skipped++
			continue
		}
		d, err := time.Parse(dateLayout, o.Date)
		if err != nil {
			return series.Series{}, fmt.Errorf("%w: %s: bad date %q", ErrSourceUnavailable, id, o.Date)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(o.Value), 64)
		if err != nil {
			return series.Series{}, fmt.Errorf("%w: %s: bad value %q on %s", ErrSourceUnavailable, id, o.Value, o.Date)
		}
		dates = append(dates, d)
		values = append(values, v)
	}

	out, err := series.New(id, dates, values)
	if err != nil {
		return series.Series{}, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, id, err)
	}
	if out.Len() == 0 {
		return series.Series{}, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, id, series.ErrEmptySeries)
	}

	s.c.log.Debug("fetched series",
		logger.String("series", id),
		logger.Int("observations", out.Len()),
		logger.Int("missing", skipped),
		logger.Duration("elapsed", time.Since(began)),
	)
	return out, nil
}
