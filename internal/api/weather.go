package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"weather-lookup/internal/models"
)

const (
	DefaultBaseURL = "https://weather.visualcrossing.com/VisualCrossingWebServices/rest/services/timeline"
	DefaultTimeout = 10 * time.Second

	// FetchFailedMessage is the only text shown to users for a failed lookup.
	FetchFailedMessage = "Failed to fetch weather data. Please try again or check your API key."
)

// ErrFetchFailed matches every error returned by Client.FetchForecast.
var ErrFetchFailed = errors.New("weather fetch failed")

// FetchError is the single failure kind of the client. Message is safe to
// show to users; Err keeps the technical cause for logs.
type FetchError struct {
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetchFailed }

func fetchFailed(err error) *FetchError {
	return &FetchError{Message: FetchFailedMessage, Err: err}
}

type httpStatusError struct {
	status int
	body   string
}

func (e httpStatusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("API returned status %d", e.status)
	}
	return fmt.Sprintf("API returned status %d: %s", e.status, e.body)
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	timeout    time.Duration
}

type ClientOption func(*Client)

func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the request timeout. A client passed through
// WithHTTPClient is copied first and never modified.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 && c.httpClient.Timeout != c.timeout {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c
}

// FetchForecast performs one GET against the timeline endpoint for the next
// seven days of city. It never retries and never caches.
func (c *Client) FetchForecast(ctx context.Context, city string) (*models.Forecast, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, fetchFailed(errors.New("city is required"))
	}
	if c.apiKey == "" {
		return nil, fetchFailed(errors.New("WEATHER_API_KEY not set"))
	}

	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("unitGroup", "metric")
	q.Set("contentType", "json")
	apiURL := fmt.Sprintf("%s/%s/next7days?%s", c.baseURL, url.PathEscape(city), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fetchFailed(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fetchFailed(fmt.Errorf("HTTP request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fetchFailed(httpStatusError{status: resp.StatusCode, body: strings.TrimSpace(string(body))})
	}

	var forecast models.Forecast
	if err := json.NewDecoder(resp.Body).Decode(&forecast); err != nil {
		return nil, fetchFailed(fmt.Errorf("invalid JSON format: %w", err))
	}
	return &forecast, nil
}
