package refdata

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/yegors/procroute/internal/procdb"
	"github.com/yegors/procroute/pkg/logger"
)

// HTTPSource downloads each family's CSV from a URL
type HTTPSource struct {
	urls       map[procdb.Family]string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
	logger     *logger.Logger
}

// NewHTTPSource creates an HTTP source. maxRetries below one means a
// single attempt.
func NewHTTPSource(dpURL, starURL string, timeout time.Duration, maxRetries int, logger *logger.Logger) *HTTPSource {
	// Create HTTP client with connection pooling
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}
	if maxRetries < 1 {
		maxRetries = 1
	}

	return &HTTPSource{
		urls: map[procdb.Family]string{
			procdb.DP:   dpURL,
			procdb.STAR: starURL,
		},
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		maxRetries: maxRetries,
		retryDelay: time.Second,
		logger:     logger.Named("refdata-http"),
	}
}

// Name implements Source
func (s *HTTPSource) Name() string {
	return "http"
}

// Fetch implements Source. Failed attempts are retried with exponential
// backoff.
func (s *HTTPSource) Fetch(ctx context.Context, f procdb.Family) (procdb.Table, error) {
	url := s.urls[f]
	if url == "" {
		return procdb.Table{}, fmt.Errorf("no %s reference URL configured", f)
	}

	s.logger.Debug("Fetching reference data",
		logger.String("family", f.String()),
		logger.String("url", url),
	)

	// Retry with exponential backoff
	retryDelay := s.retryDelay
	var resp *http.Response
	var err error

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		var req *http.Request
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return procdb.Table{}, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "text/csv, */*")
		req.Header.Set("User-Agent", "procroute/1.0")

		// Send request
		resp, err = s.httpClient.Do(req)
		if err == nil && resp.StatusCode == http.StatusOK {
			break
		}

		// Drain and close the failed response so the connection can be reused
		status := 0
		if resp != nil {
			status = resp.StatusCode
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}

		// Last attempt, give up
		if attempt == s.maxRetries-1 {
			if err != nil {
				return procdb.Table{}, fmt.Errorf("failed to fetch %s after %d attempts: %w", f, s.maxRetries, err)
			}
			return procdb.Table{}, fmt.Errorf("unexpected status code after %d attempts: %d", s.maxRetries, status)
		}

		s.logger.Warn("Retrying reference data fetch",
			logger.String("url", url),
			logger.Int("attempt", attempt+1),
			logger.Int("max_attempts", s.maxRetries),
			logger.Int("status", status),
			logger.Error(err),
		)

		// Wait before retrying
		select {
		case <-ctx.Done():
			return procdb.Table{}, ctx.Err()
		case <-time.After(retryDelay):
			retryDelay *= 2
		}
	}
	defer resp.Body.Close()

	// Parse response
	table, err := ReadTable(resp.Body)
	if err != nil {
		return procdb.Table{}, fmt.Errorf("failed to parse %s response: %w", f, err)
	}
	return table, nil
}
