package civitai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultBaseURL is the public Civitai site
	DefaultBaseURL = "https://civitai.com"

	// DefaultClientVersion is sent as X-Client-Version
	DefaultClientVersion = "5.0.289"

	// MaxRetries is the maximum number of retry attempts for retryable errors
	MaxRetries = 3

	// DefaultBackoff is the initial backoff duration for exponential backoff
	DefaultBackoff = 1 * time.Second

	// TokenCookie must be present in a usable cookie string
	TokenCookie = "__Secure-civitai-token"

	generatedImagesPath = "/api/trpc/orchestrator.queryGeneratedImages"
)

// CookieSource supplies the session cookie sent upstream
type CookieSource interface {
	CivitaiCookie(ctx context.Context) (string, error)
}

// Config configures a Client
type Config struct {
	BaseURL           string
	ClientVersion     string
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
	Backoff           time.Duration // initial backoff when Retry-After is absent
}

// Client fetches generation history pages from Civitai
type Client struct {
	baseURL       string
	clientVersion string
	backoff       time.Duration
	httpClient    *http.Client
	cookies       CookieSource
	limiter       *RateLimiter
}

// NewClient creates a Client reading its cookie from cookies on every request
func NewClient(cfg Config, cookies CookieSource) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ClientVersion == "" {
		cfg.ClientVersion = DefaultClientVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}
	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		clientVersion: cfg.ClientVersion,
		backoff:       cfg.Backoff,
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		cookies:       cookies,
		limiter:       NewRateLimiter(cfg.RequestsPerSecond, cfg.Burst),
	}
}

// ValidateCookie checks that a cookie string carries the session token
func ValidateCookie(cookie string) error {
	if !strings.Contains(cookie, TokenCookie) {
		return ErrInvalidCookie
	}
	return nil
}

// FetchPage fetches the page addressed by cursor, or the latest page when cursor is ""
// Returns nil, nil when upstream has nothing for the cursor
func (c *Client) FetchPage(ctx context.Context, cursor string) (*Page, error) {
	cookie, err := c.cookies.CivitaiCookie(ctx)
	if err != nil {
		return nil, fmt.Errorf("load civitai cookie: %w", err)
	}
	if cookie == "" {
		return nil, ErrCookieNotConfigured
	}

	reqURL, err := c.pageURL(cursor)
	if err != nil {
		return nil, err
	}

	logger := log.Ctx(ctx).With().
		Str("cursor", cursor).
		Str("correlationId", uuid.New().String()).
		Logger()

	body, err := c.doWithRetry(ctx, reqURL, cookie, &logger, 0)
	if err != nil {
		return nil, err
	}

	page, err := decodePage(body)
	if err != nil {
		return nil, err
	}
	if page == nil {
		logger.Debug().Msg("civitai returned an empty page")
		return nil, nil
	}
	page.Cursor = cursor

	logger.Debug().
		Int("items", page.Items).
		Int("images", len(page.Images)).
		Str("nextCursor", page.NextCursor).
		Msg("fetched civitai page")

	return page, nil
}

func (c *Client) pageURL(cursor string) (string, error) {
	input := struct {
		JSON struct {
			Tags   []string `json:"tags"`
			Cursor string   `json:"cursor,omitempty"`
			Authed bool     `json:"authed"`
		} `json:"json"`
	}{}
	input.JSON.Tags = []string{"gen"}
	input.JSON.Cursor = cursor
	input.JSON.Authed = true

	raw, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("encode civitai input: %w", err)
	}
	return c.baseURL + generatedImagesPath + "?" + url.Values{"input": {string(raw)}}.Encode(), nil
}

// doWithRetry sends the request, retrying 429 and 5xx responses with backoff
func (c *Client) doWithRetry(ctx context.Context, reqURL, cookie string, logger *zerolog.Logger, retryCount int) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build civitai request: %w", err)
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cookie", cookie)
	req.Header.Set("X-Client", "web")
	req.Header.Set("X-Client-Version", c.clientVersion)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		logger.Error().Err(err).Dur("duration", duration).Msg("civitai request failed")
		return nil, fmt.Errorf("fetch civitai page: %w", err)
	}

	logger.Debug().
		Int("status", resp.StatusCode).
		Dur("duration", duration).
		Int("retryCount", retryCount).
		Msg("civitai request completed")

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		discard(resp.Body)
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		if retryCount >= MaxRetries {
			logger.Warn().Msg("Rate limited - max retries exceeded")
			return nil, ErrRateLimited{RetryAfter: int(retryAfter.Seconds())}
		}
		if retryAfter == 0 {
			retryAfter = c.backoff * time.Duration(1<<retryCount)
		}
		logger.Warn().
			Dur("retryAfter", retryAfter).
			Int("retryCount", retryCount).
			Msg("Rate limited - backing off")
		c.limiter.Backoff(retryAfter)
		return c.doWithRetry(ctx, reqURL, cookie, logger, retryCount+1)

	case resp.StatusCode >= 500 && retryCount < MaxRetries:
		discard(resp.Body)
		wait := c.backoff * time.Duration(1<<retryCount)
		logger.Warn().
			Int("status", resp.StatusCode).
			Dur("backoff", wait).
			Msg("civitai server error - retrying")
		select {
		case <-time.After(wait):
			return c.doWithRetry(ctx, reqURL, cookie, logger, retryCount+1)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("read civitai response: %w", err)
	}

	// tRPC reports procedure errors in the body, often with a 4xx status
	if resp.StatusCode >= 400 {
		if apiErr := decodeAPIError(body, resp.StatusCode); apiErr != nil {
			return nil, apiErr
		}
		return nil, &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	return body, nil
}

// discard drains and closes a body that won't be read so the connection can be reused
func discard(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64<<10))
	body.Close()
}

// decodePage turns a response body into a Page
func decodePage(body []byte) (*Page, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if env.Error != nil {
		return nil, &APIError{
			Status:  env.Error.JSON.Data.HTTPStatus,
			Code:    env.Error.JSON.Data.Code,
			Message: env.Error.JSON.Message,
		}
	}
	if env.Result == nil || env.Result.Data == nil {
		return nil, ErrInvalidResponse
	}

	data := env.Result.Data.JSON
	page := &Page{Items: len(data.Items)}
	if data.NextCursor != nil {
		page.NextCursor = *data.NextCursor
	}
	for _, item := range data.Items {
		for _, step := range item.Steps {
			for _, img := range step.Images {
				out := Image{
					ID:     string(img.ID),
					URL:    img.URL,
					Width:  img.Width,
					Height: img.Height,
				}
				if img.Completed != nil {
					out.Completed = img.Completed.UTC()
				}
				page.Images = append(page.Images, out)
			}
		}
	}

	if page.Items == 0 && page.NextCursor == "" {
		return nil, nil
	}
	return page, nil
}

func decodeAPIError(body []byte, status int) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil || env.Error == nil {
		return nil
	}
	apiErr := &APIError{
		Status:  env.Error.JSON.Data.HTTPStatus,
		Code:    env.Error.JSON.Data.Code,
		Message: env.Error.JSON.Message,
	}
	if apiErr.Status == 0 {
		apiErr.Status = status
	}
	return apiErr
}

// parseRetryAfter parses the Retry-After header
// Supports both integer seconds and HTTP-date format
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(value); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}

	return 0
}
