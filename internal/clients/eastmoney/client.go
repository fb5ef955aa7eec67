// Package eastmoney provides the market data gateway client for fund
// NAV, holdings, allocation, and constituent quote feeds.
package eastmoney

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
	"time"

	"golang.org/x/time/rate"

	"github.com/qiuyin/fundwatch/internal/common"
	"github.com/qiuyin/fundwatch/internal/interfaces"
	"github.com/qiuyin/fundwatch/internal/models"
)

const (
	DefaultFundBaseURL   = "https://fundgz.1234567.com.cn"
	DefaultMobileBaseURL = "https://fundmobapi.eastmoney.com"
	DefaultQuoteBaseURL  = "https://push2.eastmoney.com"
	DefaultSearchBaseURL = "https://fundsuggest.eastmoney.com"

	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 5 // requests per second

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// ErrNotFound is returned when the provider has no usable data for the
// requested fund. Callers map it to a null result, never a crash.
var ErrNotFound = errors.New("fund not found")

// flexFloat64 handles JSON values that may be either a number or a
// string; the provider mixes both and uses "--" as a no-data marker.
type flexFloat64 float64

func (f *flexFloat64) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexFloat64(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" || s == "--" || s == "N/A" {
			*f = 0
			return nil
		}
		num, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat64(num)
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

// Client implements the EastmoneyClient interface
type Client struct {
	fundBaseURL   string
	mobileBaseURL string
	quoteBaseURL  string
	searchBaseURL string
	userAgent     string
	httpClient    *http.Client
	logger        *common.Logger
	limiter       *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURLs overrides the provider endpoints. Empty values keep the
// defaults.
func WithBaseURLs(fund, mobile, quote, search string) ClientOption {
	return func(c *Client) {
		if fund != "" {
			c.fundBaseURL = fund
		}
		if mobile != "" {
			c.mobileBaseURL = mobile
		}
		if quote != "" {
			c.quoteBaseURL = quote
		}
		if search != "" {
			c.searchBaseURL = search
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithUserAgent sets the User-Agent header sent to the provider.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient creates a new eastmoney gateway client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		fundBaseURL:   DefaultFundBaseURL,
		mobileBaseURL: DefaultMobileBaseURL,
		quoteBaseURL:  DefaultQuoteBaseURL,
		searchBaseURL: DefaultSearchBaseURL,
		userAgent:     defaultUserAgent,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents a provider error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("eastmoney API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// getRaw performs a rate-limited GET request and returns the body.
func (c *Client) getRaw(ctx context.Context, baseURL, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Referer", "https://fund.eastmoney.com/")

	c.logger.Debug().Str("url", baseURL+path).Msg("eastmoney API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Endpoint:   path,
		}
	}

	return body, nil
}

// getJSON performs a rate-limited GET request and decodes a JSON body.
func (c *Client) getJSON(ctx context.Context, baseURL, path string, params url.Values, result interface{}) error {
	body, err := c.getRaw(ctx, baseURL, path, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// unwrapJSONP strips the callback wrapper from a JSONP payload,
// returning the inner JSON or an empty string when the payload does
// not look like JSONP.
func unwrapJSONP(body string) string {
	start := strings.Index(body, "(")
	end := strings.LastIndex(body, ")")
	if start < 0 || end < 0 || end <= start {
		return ""
	}
	return strings.TrimSpace(body[start+1 : end])
}

// mobileParams returns the query parameters the mobile API expects on
// every call.
func mobileParams(fundCode string) url.Values {
	params := url.Values{}
	params.Set("FCODE", fundCode)
	params.Set("deviceid", "fundwatch")
	params.Set("plat", "Iphone")
	params.Set("product", "EFund")
	params.Set("version", "6.0.0")
	return params
}

// Ensure Client implements EastmoneyClient
var _ interfaces.EastmoneyClient = (*Client)(nil)

// Quote batching helpers live in quotes.go; fund feeds in fund.go.

// secIDForCode builds the push2 security id for an instrument code,
// returning ok=false for codes whose exchange cannot be classified.
func secIDForCode(code string) (string, bool) {
	switch models.ClassifyInstrument(code) {
	case models.ExchangeShanghai:
		return "1." + code, true
	case models.ExchangeShenzhen:
		return "0." + code, true
	case models.ExchangeHongKong:
		return "116." + code, true
	default:
		return "", false
	}
}
