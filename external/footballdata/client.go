package footballdata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchweek/internal/platform/logging"
	"github.com/riskibarqy/matchweek/internal/platform/resilience"
	"github.com/riskibarqy/matchweek/internal/usecase"
	"github.com/valyala/bytebufferpool"
)

const (
	defaultBaseURL     = "https://api.football-data.org/v4"
	defaultCompetition = "PL"
	authHeader         = "X-Auth-Token"
	maxBodyBytes       = 6 << 20
)

var authTokenHeaderRegex = regexp.MustCompile(`(?i)x-auth-token[:=]\s*[^\s,"']+`)
var errFootballDataTransient = crerr.New("football-data transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Token          string
	Competition    string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client reads one competition's matches from the football-data.org v4 API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	token       string
	competition string
	logger      *logging.Logger
	breaker     *resilience.CircuitBreaker
	flight      resilience.Group[[]byte]
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	competition := strings.ToUpper(strings.TrimSpace(cfg.Competition))
	if competition == "" {
		competition = defaultCompetition
	}

	breaker := resilience.NewFromConfig(cfg.CircuitBreaker)
	if breaker != nil {
		breaker.OnTransition(func(from, to resilience.CircuitState) {
			if to == resilience.CircuitStateOpen {
				logger.Warn("football-data circuit opened", "from", from, "competition", competition)
				return
			}
			logger.Info("football-data circuit state changed", "from", from, "to", to, "competition", competition)
		})
	}

	return &Client{
		httpClient:  httpClient,
		baseURL:     baseURL,
		token:       strings.TrimSpace(cfg.Token),
		competition: competition,
		logger:      logger,
		breaker:     breaker,
	}
}

func (c *Client) FetchMatchesByDateRange(ctx context.Context, dateFrom, dateTo string) ([]usecase.ExternalMatch, error) {
	return c.fetchMatches(ctx, url.Values{
		"dateFrom": []string{dateFrom},
		"dateTo":   []string{dateTo},
	})
}

func (c *Client) FetchFinishedMatches(ctx context.Context) ([]usecase.ExternalMatch, error) {
	return c.fetchMatches(ctx, url.Values{"status": []string{"FINISHED"}})
}

// BreakerSnapshot reports the upstream circuit state; ok is false when the breaker is disabled.
func (c *Client) BreakerSnapshot() (resilience.Snapshot, bool) {
	if c.breaker == nil {
		return resilience.Snapshot{}, false
	}
	return c.breaker.Snapshot(), true
}

func (c *Client) fetchMatches(ctx context.Context, query url.Values) ([]usecase.ExternalMatch, error) {
	path := "/competitions/" + url.PathEscape(c.competition) + "/matches"

	var envelope matchesEnvelope
	if err := c.doJSON(ctx, path, query, &envelope); err != nil {
		return nil, fmt.Errorf("fetch matches competition=%s: %w", c.competition, err)
	}

	out := make([]usecase.ExternalMatch, 0, len(envelope.Matches))
	for idx, item := range envelope.Matches {
		parsed, err := parseMatch(item)
		if err != nil {
			c.logger.WarnContext(ctx, "skip invalid football-data match record", "index", idx, "error", err)
			continue
		}
		out = append(out, parsed)
	}
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, path string, query url.Values, target any) error {
	if c.breaker != nil {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "football-data circuit breaker rejected request",
				"retry_after", c.breaker.Snapshot().RetryAfter,
			)
			return fmt.Errorf("%w: match provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	fullURL := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	raw, err, _ := c.flight.Do(fullURL, func() ([]byte, error) {
		body, reqErr := c.executeRequest(ctx, fullURL)
		c.recordOutcome(reqErr)
		return body, reqErr
	})
	if err != nil {
		return err
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%w: decode provider payload: %v", usecase.ErrDependencyUnavailable, err)
	}
	return nil
}

func (c *Client) recordOutcome(err error) {
	if c.breaker == nil {
		return
	}
	if isCircuitFailure(err) {
		c.breaker.RecordFailure()
		return
	}
	c.breaker.RecordSuccess()
}

// executeRequest makes exactly one upstream call. A second attempt is the provider's
// fallback query, so calls per request stay bounded at two.
func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", usecase.ErrDependencyUnavailable, err)
	}
	req.Header.Set("accept", "application/json")
	if c.token != "" {
		req.Header.Set(authHeader, c.token)
	}

	raw, status, err := c.send(req)
	switch {
	case err != nil:
		err = crerr.Mark(
			fmt.Errorf("%w: send request: %s", usecase.ErrDependencyUnavailable, sanitizeSensitiveText(err.Error(), c.token)),
			errFootballDataTransient,
		)
	case status >= 200 && status < 300:
		return raw, nil
	case status == http.StatusTooManyRequests:
		c.logger.WarnContext(ctx, "football-data rate limited request", "url", fullURL)
		return nil, fmt.Errorf("%w: provider status=%d", usecase.ErrRateLimited, status)
	case status >= http.StatusInternalServerError:
		err = crerr.Mark(
			fmt.Errorf("%w: provider status=%d body=%s", usecase.ErrDependencyUnavailable, status, abbreviateBody(raw, c.token)),
			errFootballDataTransient,
		)
	default:
		c.logger.WarnContext(ctx, "football-data request rejected", "url", fullURL, "status", status)
		return nil, fmt.Errorf("%w: provider status=%d body=%s", usecase.ErrDependencyUnavailable, status, abbreviateBody(raw, c.token))
	}

	c.logger.WarnContext(ctx, "football-data request failed", "url", fullURL, "error", err)
	return nil, err
}

func (c *Client) send(req *http.Request) ([]byte, int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if _, err := buf.ReadFrom(io.LimitReader(resp.Body, maxBodyBytes)); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response body: %w", err)
	}

	raw := make([]byte, buf.Len())
	copy(raw, buf.B)
	return raw, resp.StatusCode, nil
}

func isCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	return crerr.Is(err, errFootballDataTransient)
}

func sanitizeSensitiveText(value, token string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if token != "" {
		value = strings.ReplaceAll(value, token, "REDACTED")
	}
	return authTokenHeaderRegex.ReplaceAllString(value, "X-Auth-Token: REDACTED")
}

func abbreviateBody(body []byte, token string) string {
	text := sanitizeSensitiveText(string(body), token)
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
