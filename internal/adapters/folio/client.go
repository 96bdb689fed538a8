// Package folio provides the HTTP client for the FOLIO-style storage
// backend: tenant directory, provider storage, report storage, aggregator
// settings and config entries all live behind one gateway URL
package folio

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"harvester/internal/platform/config"
	perr "harvester/internal/platform/errors"
	"harvester/internal/platform/logger"
)

const (
	defaultTimeout = 10 * time.Second
	defaultUA      = "erm-usage-harvester"

	defaultTenantsPath    = "/_/proxy/tenants"
	defaultReportsPath    = "/counter-reports"
	defaultProviderPath   = "/usage-data-providers"
	defaultAggregatorPath = "/aggregator-settings"
	defaultConfigPath     = "/configurations/entries"

	// response bodies are small JSON documents; reports stay under this
	maxBody = 8 << 20

	headerTenant = "X-Okapi-Tenant"
	headerToken  = "X-Okapi-Token"
)

// Options configures the Client
type Options struct {
	BaseURL string
	Tenant  string
	Token   string

	TenantsPath    string
	ReportsPath    string
	ProviderPath   string
	AggregatorPath string
	ConfigPath     string

	UserAgent string
	Timeout   time.Duration
}

// FromConfig reads client options from the FOLIO_ env prefix
func FromConfig(cfg config.Conf) Options {
	fc := cfg.Prefix("FOLIO_")
	return Options{
		BaseURL:        fc.MustString("URL"),
		TenantsPath:    fc.MayString("TENANTS_PATH", defaultTenantsPath),
		ReportsPath:    fc.MayString("REPORTS_PATH", defaultReportsPath),
		ProviderPath:   fc.MayString("PROVIDER_PATH", defaultProviderPath),
		AggregatorPath: fc.MayString("AGGREGATOR_PATH", defaultAggregatorPath),
		ConfigPath:     fc.MayString("CONFIG_PATH", defaultConfigPath),
		Timeout:        fc.MayDuration("TIMEOUT", defaultTimeout),
	}
}

// Client is a minimal storage-backend client scoped to one tenant
type Client struct {
	http *http.Client
	opts Options
	log  logger.Logger
}

// New creates a Client with sane defaults
func New(o Options) *Client {
	o.BaseURL = strings.TrimSuffix(o.BaseURL, "/")
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.TenantsPath == "" {
		o.TenantsPath = defaultTenantsPath
	}
	if o.ReportsPath == "" {
		o.ReportsPath = defaultReportsPath
	}
	if o.ProviderPath == "" {
		o.ProviderPath = defaultProviderPath
	}
	if o.AggregatorPath == "" {
		o.AggregatorPath = defaultAggregatorPath
	}
	if o.ConfigPath == "" {
		o.ConfigPath = defaultConfigPath
	}
	return &Client{
		http: &http.Client{Timeout: o.Timeout},
		opts: o,
		log:  *logger.Named("folio"),
	}
}

// WithTenant returns a copy of the client scoped to another tenant/token pair
func (c *Client) WithTenant(tenant, token string) *Client {
	cc := *c
	cc.opts.Tenant = tenant
	cc.opts.Token = token
	return &cc
}

// Tenant returns the tenant this client is scoped to
func (c *Client) Tenant() string { return c.opts.Tenant }

func (c *Client) url(path string, q url.Values) string {
	u := c.opts.BaseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (c *Client) newRequest(ctx context.Context, method, u string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeValidation, "building request for %s", u)
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/json")
	if c.opts.Tenant != "" {
		req.Header.Set(headerTenant, c.opts.Tenant)
	}
	if c.opts.Token != "" {
		req.Header.Set(headerToken, c.opts.Token)
	}
	return req, nil
}

// get issues a GET and returns the body of a 2xx response.
// Transport failures, non-2xx statuses and oversized bodies classify
// per the platform error codes
func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	u := c.url(path, q)
	req, err := c.newRequest(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, perr.Transportf(err, "failed retrieving %s", path)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Error().Err(cerr).Str("path", path).Msg("close body failed")
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, perr.Statusf(resp.StatusCode, "received status code %d requesting %s", resp.StatusCode, path)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, perr.Transportf(err, "failed reading response from %s", path)
	}
	return b, nil
}

// send issues a JSON-bodied request and discards the 2xx response body
func (c *Client) send(ctx context.Context, method, path string, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeValidation, "encoding body for %s", path)
	}
	req, err := c.newRequest(ctx, method, c.url(path, nil), bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return perr.Transportf(err, "%s %s failed", method, path)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Error().Err(cerr).Str("path", path).Msg("close body failed")
		}
	}()
	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return perr.Statusf(resp.StatusCode, "received status code %d from %s %s", resp.StatusCode, method, path)
	}
	return nil
}

// decodeJSON unmarshals into out; failures carry the decode marker so they
// stay distinguishable from status errors
func decodeJSON(b []byte, what string, out any) error {
	if err := json.Unmarshal(b, out); err != nil {
		return perr.DecodeWrap(err, "error decoding %s", what)
	}
	return nil
}
