package whttp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendHTTPRequest_PostsForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.Equal(t, "agent/1.0", r.Header.Get("User-Agent"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "get_version", r.PostForm.Get("edd_action"))
		w.Write([]byte("  {\"ok\":true}\n"))
	}))
	defer srv.Close()

	client, err := NewClient(Options{Timeout: time.Second})
	require.NoError(t, err)

	res, err := SendHTTPRequest(context.Background(), &WHTTPReq{
		Method:  http.MethodPost,
		URL:     srv.URL,
		Headers: []WHTTPHeader{{Name: "User-Agent", Value: "agent/1.0"}},
		Form:    url.Values{"edd_action": {"get_version"}},
	}, client)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, `{"ok":true}`, res.BodyString)
}

func TestSendHTTPRequest_ServerErrorIsReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := NewClient(Options{Timeout: time.Second})
	require.NoError(t, err)

	res, err := SendHTTPRequest(context.Background(), &WHTTPReq{Method: http.MethodGet, URL: srv.URL}, client)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, res.StatusCode)
}

func TestNewClient_Options(t *testing.T) {
	client, err := NewClient(Options{Timeout: 15 * time.Second, Retries: 2, InsecureSkipVerify: true, Proxy: "http://127.0.0.1:8080"})
	require.NoError(t, err)
	assert.Equal(t, 2, client.RetryMax)
	assert.Equal(t, 15*time.Second, client.HTTPClient.Timeout)

	tr := client.HTTPClient.Transport.(*http.Transport)
	require.NotNil(t, tr.TLSClientConfig)
	assert.True(t, tr.TLSClientConfig.InsecureSkipVerify)
	require.NotNil(t, tr.Proxy)

	_, err = NewClient(Options{Proxy: "://bad"})
	assert.Error(t, err)
}

func TestPairs(t *testing.T) {
	assert.Equal(t, " url=http://x attempt=2", pairs([]interface{}{"url", "http://x", "attempt", 2}))
	assert.Equal(t, "", pairs(nil))
}
