package advent

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/advent-board/internal/domain/leaderboard"
	"github.com/riskibarqy/advent-board/internal/platform/logging"
	"github.com/riskibarqy/advent-board/internal/platform/resilience"
	"github.com/riskibarqy/advent-board/internal/usecase"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultBaseURL   = "https://adventofcode.com"
	defaultUserAgent = "advent-board (github.com/riskibarqy/advent-board)"
	maxResponseBytes = 4 << 20
)

var sessionCookieRegex = regexp.MustCompile(`session=[^;\s"']+`)
var errAdventTransient = crerr.New("advent transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Session        string
	UserAgent      string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client talks to the puzzle site's private leaderboard JSON endpoint.
// Authentication is the browser session cookie. The site asks tools to
// fetch sparingly, so callers cache snapshots and retries default to off.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	session        string
	userAgent      string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
	validate       *validator.Validate
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			// A stale cookie answers with a redirect to the login page.
			// Surfacing the 3xx keeps that distinguishable from a real
			// leaderboard payload.
			CheckRedirect: func(_ *http.Request, _ []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		session:        strings.TrimSpace(cfg.Session),
		userAgent:      userAgent,
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
		validate:       validator.New(),
	}
}

// FetchLeaderboard downloads and maps the private leaderboard JSON for
// one board and event year.
func (c *Client) FetchLeaderboard(ctx context.Context, leaderboardID, year int) (leaderboard.Snapshot, error) {
	if leaderboardID <= 0 {
		return leaderboard.Snapshot{}, fmt.Errorf("leaderboard id must be greater than zero")
	}
	if year < leaderboard.FirstEventYear {
		return leaderboard.Snapshot{}, fmt.Errorf("event year %d predates the first event (%d)", year, leaderboard.FirstEventYear)
	}

	path := fmt.Sprintf("/%d/leaderboard/private/view/%d.json", year, leaderboardID)

	var envelope boardEnvelope
	if _, err := c.doJSON(ctx, path, &envelope); err != nil {
		return leaderboard.Snapshot{}, fmt.Errorf("fetch leaderboard id=%d year=%d: %w", leaderboardID, year, err)
	}

	if err := c.validate.StructCtx(ctx, envelope); err != nil {
		return leaderboard.Snapshot{}, fmt.Errorf("leaderboard id=%d payload failed validation: %v", leaderboardID, err)
	}

	snapshot, err := mapBoardToSnapshot(envelope)
	if err != nil {
		return leaderboard.Snapshot{}, fmt.Errorf("map leaderboard id=%d payload: %w", leaderboardID, err)
	}

	return snapshot, nil
}

func (c *Client) doJSON(ctx context.Context, path string, target any) ([]byte, error) {
	if c.session == "" {
		return nil, fmt.Errorf("%w: no session token configured", usecase.ErrAuthRejected)
	}

	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "advent circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("%w: puzzle site is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	fullURL := c.baseURL + path

	out, err, _ := c.flight.Do(path, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && isAdventCircuitFailure(reqErr) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return nil, err
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected response payload type %T", out)
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return nil, fmt.Errorf("decode leaderboard payload: %w", err)
	}

	return raw, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Cookie", "session="+c.session)
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errAdventTransient, sanitizeSensitiveText(err.Error(), c.session))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errAdventTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: puzzle site status=%d body=%s", errAdventTransient, resp.StatusCode, abbreviateBody(raw))
			default:
				// Anything else means the session cookie was not
				// accepted, most often because it expired.
				return nil, fmt.Errorf("%w: puzzle site answered status=%d, refresh the AOC_SESSION cookie from a logged-in browser", usecase.ErrAuthRejected, resp.StatusCode)
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("leaderboard request failed")
	}
	c.logger.WarnContext(ctx, "advent request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func isAdventCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, errAdventTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func sanitizeSensitiveText(value, token string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if token != "" {
		value = strings.ReplaceAll(value, token, "REDACTED")
	}
	value = sessionCookieRegex.ReplaceAllString(value, "session=REDACTED")
	return value
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}

func maxInt(left, right int) int {
	if left > right {
		return left
	}
	return right
}
