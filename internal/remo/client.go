package remo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

const (
	// DefaultBaseURL is the Nature Remo cloud API root.
	DefaultBaseURL = "https://api.nature.global/1"

	defaultTimeout = 10 * time.Second

	// errorBodyLimit caps how much of an error response is logged.
	errorBodyLimit = 512
)

// Endpoint labels used for logging and metrics.
const (
	endpointDevices        = "devices"
	endpointAppliances     = "appliances"
	endpointAirconSettings = "aircon_settings"
	endpointSignalSend     = "signal_send"
)

// ClientConfig configures a Client.
type ClientConfig struct {
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// Token is the personal access token issued at home.nature.global.
	Token string

	// Timeout bounds each request. Defaults to 10s.
	Timeout time.Duration

	// HTTPClient is the transport the bearer token is layered on.
	// Defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// Client implements Gateway over the vendor's REST API.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     Logger

	mu        sync.RWMutex
	rateLimit RateLimit
}

var _ Gateway = (*Client)(nil)

// NewClient creates a Client. Requests carry the token as a bearer
// Authorization header.
func NewClient(cfg ClientConfig, logger Logger) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	ctx := context.Background()
	if cfg.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, cfg.HTTPClient)
	}
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: cfg.Token,
		TokenType:   "Bearer",
	}))
	httpClient.Timeout = timeout

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// RateLimit returns the last observed rate-limit window.
func (c *Client) RateLimit() RateLimit {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rateLimit
}

// ListDevices implements Gateway.
func (c *Client) ListDevices(ctx context.Context) []Device {
	var devices []Device
	if !c.request(ctx, http.MethodGet, "/devices", endpointDevices, nil, &devices) {
		return nil
	}
	if devices == nil {
		devices = []Device{}
	}
	return devices
}

// ListAppliances implements Gateway.
func (c *Client) ListAppliances(ctx context.Context) []Appliance {
	var appliances []Appliance
	if !c.request(ctx, http.MethodGet, "/appliances", endpointAppliances, nil, &appliances) {
		return nil
	}
	if appliances == nil {
		appliances = []Appliance{}
	}
	return appliances
}

// UpdateAirconSettings implements Gateway.
func (c *Client) UpdateAirconSettings(ctx context.Context, applianceID string, params AirconSettingsParams) *AirconSettings {
	var settings AirconSettings
	path := "/appliances/" + url.PathEscape(applianceID) + "/aircon_settings"
	if !c.request(ctx, http.MethodPost, path, endpointAirconSettings, params.form(), &settings) {
		return nil
	}
	return &settings
}

// SendSignal implements Gateway.
func (c *Client) SendSignal(ctx context.Context, signalID string) bool {
	path := "/signals/" + url.PathEscape(signalID) + "/send"
	return c.request(ctx, http.MethodPost, path, endpointSignalSend, url.Values{}, nil)
}

// form encodes the params as the vendor expects. The button field is always
// present since its empty value switches the unit on.
func (p AirconSettingsParams) form() url.Values {
	v := url.Values{}
	v.Set("button", p.Button)
	if p.Dir != "" {
		v.Set("dir", p.Dir)
	}
	if p.DirH != "" {
		v.Set("dirh", p.DirH)
	}
	if p.OperationMode != "" {
		v.Set("operation_mode", string(p.OperationMode))
	}
	if p.Temperature != "" {
		v.Set("temperature", p.Temperature)
	}
	if p.Volume != "" {
		v.Set("volume", p.Volume)
	}
	return v
}

// request performs one API call and decodes a 2xx body into out (when
// non-nil). It reports success; every failure is logged here and nowhere
// else.
func (c *Client) request(ctx context.Context, method, path, endpoint string, form url.Values, out any) bool {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		c.logger.Error("building api request", "endpoint", endpoint, "error", err)
		return false
	}
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	c.logger.Debug("api request start", "endpoint", endpoint, "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		requestsTotal.WithLabelValues(endpoint, "error").Inc()
		c.logger.Error("api request failed", "endpoint", endpoint, "path", path, "error", err)
		return false
	}
	defer resp.Body.Close()

	requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
	rl, hasRateLimit := parseRateLimit(resp.Header)
	if hasRateLimit {
		c.mu.Lock()
		c.rateLimit = rl
		c.mu.Unlock()
		rl.record()
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		c.logger.Warn("api rate limited",
			"endpoint", endpoint,
			"status", resp.StatusCode,
			"limit", fmt.Sprintf("%d/%d", rl.Used(), rl.Limit),
			"remaining", rl.Remaining,
			"reset_at", formatReset(rl.Reset),
		)
		return false
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit)) //nolint:errcheck // Best effort excerpt
		c.logger.Error("api error",
			"endpoint", endpoint,
			"path", path,
			"status", resp.StatusCode,
			"body", strings.TrimSpace(string(excerpt)),
		)
		return false
	}

	c.logger.Debug("api request end",
		"endpoint", endpoint,
		"status", resp.StatusCode,
		"limit", fmt.Sprintf("%d/%d", rl.Used(), rl.Limit),
		"reset_at", formatReset(rl.Reset),
	)

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body) //nolint:errcheck // Drain for connection reuse
		return true
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.Error("decoding api response", "endpoint", endpoint, "path", path, "error", err)
		return false
	}
	return true
}

func formatReset(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
