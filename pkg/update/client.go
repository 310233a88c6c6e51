// Package update performs authenticated update checks against a licensing
// server and keeps the host's update cache.
package update

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sony/gobreaker"
	"github.com/tidwall/gjson"

	"github.com/sw33tLie/msupdater/pkg/extension"
	"github.com/sw33tLie/msupdater/pkg/license"
	"github.com/sw33tLie/msupdater/pkg/whttp"
)

const (
	DefaultTimeout     = 15 * time.Second
	DefaultHostVersion = "6.4"

	actionGetVersion = "get_version"

	// An endpoint failing this many times in a row is skipped until
	// breakerCooldown has passed.
	breakerFailures = 3
	breakerCooldown = time.Minute
)

// Config configures a Client.
type Config struct {
	// HostVersion is the host platform version announced in the user agent.
	HostVersion string
	Timeout     time.Duration
	Retries     int
	// InsecureSkipVerify disables TLS certificate verification so that
	// self-signed update endpoints keep working.
	InsecureSkipVerify bool
	Proxy              string
	Log                whttp.Logger
}

// Request is everything needed to ask a licensing server about one extension.
type Request struct {
	Extension extension.Metadata
	License   license.Record
	// SiteURL is the requesting site's URL. Defaults to the URL of the site
	// the license was found on.
	SiteURL string
}

// Client talks to licensing servers. Circuit breakers are tracked per
// endpoint for the lifetime of the client; use Session to scope them to a
// single resolution run.
type Client struct {
	http        *retryablehttp.Client
	hostVersion string

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HostVersion == "" {
		cfg.HostVersion = DefaultHostVersion
	}

	hc, err := whttp.NewClient(whttp.Options{
		Timeout:            cfg.Timeout,
		Retries:            cfg.Retries,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		Proxy:              cfg.Proxy,
		Log:                cfg.Log,
	})
	if err != nil {
		return nil, err
	}

	return &Client{
		http:        hc,
		hostVersion: cfg.HostVersion,
		breakers:    make(map[string]*gobreaker.CircuitBreaker),
	}, nil
}

// Session returns a client sharing c's transport with a fresh set of circuit
// breakers.
func (c *Client) Session() *Client {
	return &Client{
		http:        c.http,
		hostVersion: c.hostVersion,
		breakers:    make(map[string]*gobreaker.CircuitBreaker),
	}
}

// Check asks the license's server for the latest version of the extension.
// It returns the metadata when the server offers a strictly newer version
// than the installed one; when it doesn't, the metadata is returned together
// with ErrNoUpdate. Any failure is a *RequestError.
func (c *Client) Check(ctx context.Context, req Request) (*Result, error) {
	res, _, err := c.request(ctx, "check", req)
	if err != nil {
		return nil, err
	}

	if !Newer(res.NewVersion, req.License.Version) {
		return res, ErrNoUpdate
	}
	return res, nil
}

// request performs the get_version call and decodes the response.
func (c *Client) request(ctx context.Context, op string, req Request) (*Result, gjson.Result, error) {
	endpoint := req.License.APIURL
	fail := func(status int, err error) (*Result, gjson.Result, error) {
		return nil, gjson.Result{}, &RequestError{Op: op, URL: endpoint, StatusCode: status, Err: err}
	}

	var res *whttp.WHTTPRes
	_, err := c.breaker(endpoint).Execute(func() (interface{}, error) {
		var err error
		res, err = whttp.SendHTTPRequest(ctx, &whttp.WHTTPReq{
			Method:  http.MethodPost,
			URL:     endpoint,
			Headers: []whttp.WHTTPHeader{{Name: "User-Agent", Value: c.userAgent(req)}},
			Form:    c.payload(req),
		}, c.http)
		if err != nil {
			return nil, err
		}
		if res.StatusCode >= http.StatusInternalServerError {
			return nil, errors.New("server error")
		}
		return nil, nil
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return fail(0, err)
	case err != nil && res != nil:
		return fail(res.StatusCode, err)
	case err != nil:
		return fail(0, err)
	case res.StatusCode < 200 || res.StatusCode > 299:
		return fail(res.StatusCode, errors.New("unexpected status"))
	}

	parsed, doc, err := parseResult(res.BodyString)
	if err != nil {
		return fail(res.StatusCode, err)
	}
	parsed.ExtensionID = req.Extension.ID
	parsed.SiteID = req.License.SiteID
	if parsed.Slug == "" {
		parsed.Slug = req.Extension.Slug
	}
	return parsed, doc, nil
}

func (c *Client) payload(req Request) url.Values {
	author := req.License.Author
	if author == "" {
		author = req.Extension.Author
	}
	slug := req.Extension.Slug
	if slug == "" {
		slug = req.License.Slug
	}
	return url.Values{
		"edd_action": {actionGetVersion},
		"license":    {req.License.License},
		"name":       {EncodeEntities(req.License.ItemName)},
		"slug":       {slug},
		"author":     {author},
		"url":        {requestURL(req)},
	}
}

func (c *Client) userAgent(req Request) string {
	return "WordPress/" + c.hostVersion + "; " + requestURL(req)
}

func requestURL(req Request) string {
	if req.SiteURL != "" {
		return req.SiteURL
	}
	return req.License.SiteURL
}

func (c *Client) breaker(endpoint string) *gobreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := strings.TrimRight(endpoint, "/")
	if cb, ok := c.breakers[key]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    key,
		Timeout: breakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailures
		},
	})
	c.breakers[key] = cb
	return cb
}
