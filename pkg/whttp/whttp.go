package whttp

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

type WHTTPHeader struct {
	Name  string
	Value string
}

type WHTTPReq struct {
	URL     string
	Method  string
	Headers []WHTTPHeader
	// Form is sent url-encoded as the request body when set.
	Form url.Values
}

type WHTTPRes struct {
	StatusCode     int
	ResponseLength int
	BodyString     string
}

// Options configures the shared client.
type Options struct {
	Timeout            time.Duration
	Retries            int
	RetryWaitMin       time.Duration
	RetryWaitMax       time.Duration
	InsecureSkipVerify bool
	Proxy              string
	Log                Logger
}

// NewClient builds a retrying client. Retries only happen on connection
// errors and 5xx responses; the final response is always handed back.
func NewClient(opts Options) (*retryablehttp.Client, error) {
	client := retryablehttp.NewClient()
	client.RetryMax = opts.Retries
	if opts.RetryWaitMin > 0 {
		client.RetryWaitMin = opts.RetryWaitMin
	}
	if opts.RetryWaitMax > 0 {
		client.RetryWaitMax = opts.RetryWaitMax
	}
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.HTTPClient.Timeout = opts.Timeout

	if opts.Log != nil {
		client.Logger = leveledLogger{opts.Log}
	} else {
		client.Logger = nil
	}

	transport, ok := client.HTTPClient.Transport.(*http.Transport)
	if !ok {
		transport = http.DefaultTransport.(*http.Transport).Clone()
		client.HTTPClient.Transport = transport
	}
	if opts.InsecureSkipVerify {
		//nolint:gosec // update endpoints are allowed to use self-signed certificates
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	if opts.Proxy != "" {
		proxyURL, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %v", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return client, nil
}

func SendHTTPRequest(ctx context.Context, wReq *WHTTPReq, client *retryablehttp.Client) (*WHTTPRes, error) {
	if client == nil {
		var err error
		if client, err = NewClient(Options{Timeout: 15 * time.Second}); err != nil {
			return nil, err
		}
	}

	var body []byte
	if wReq.Form != nil {
		body = []byte(wReq.Form.Encode())
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, wReq.Method, wReq.URL, body)
	if err != nil {
		return nil, err
	}

	if wReq.Form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Connection", "close")

	for _, h := range wReq.Headers {
		req.Header.Set(h.Name, h.Value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, err
	}

	return &WHTTPRes{
		StatusCode:     resp.StatusCode,
		ResponseLength: buf.Len(),
		BodyString:     strings.TrimSpace(buf.String()),
	}, nil
}
