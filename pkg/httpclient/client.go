package httpclient

import (
	"context"
	"io"
	"net/http"
	"time"
)

var _ HTTPClient = (*httpClient)(nil)

type HTTPClient interface {
	Get(ctx context.Context, url string, headers map[string]string) (*http.Response, error)
	Post(ctx context.Context, url string, body io.Reader, headers map[string]string) (*http.Response, error)
	Put(ctx context.Context, url string, body io.Reader, headers map[string]string) (*http.Response, error)
	Delete(ctx context.Context, url string, body io.Reader, headers map[string]string) (*http.Response, error)
	Do(req *http.Request) (*http.Response, error)
}

type httpClient struct {
	client *http.Client
}

func NewHTTPClient(timeout time.Duration) HTTPClient {
	return &httpClient{client: &http.Client{Timeout: timeout}}
}

func (c *httpClient) Get(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	return c.send(ctx, http.MethodGet, url, nil, headers)
}

func (c *httpClient) Post(ctx context.Context, url string, body io.Reader, headers map[string]string) (*http.Response, error) {
	return c.send(ctx, http.MethodPost, url, body, headers)
}

func (c *httpClient) Put(ctx context.Context, url string, body io.Reader, headers map[string]string) (*http.Response, error) {
	return c.send(ctx, http.MethodPut, url, body, headers)
}

// Delete accepts a body because some gateways identify the resource in it.
func (c *httpClient) Delete(ctx context.Context, url string, body io.Reader, headers map[string]string) (*http.Response, error) {
	return c.send(ctx, http.MethodDelete, url, body, headers)
}

func (c *httpClient) Do(req *http.Request) (*http.Response, error) {
	return c.client.Do(req)
}

func (c *httpClient) send(ctx context.Context, method, url string, body io.Reader, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	setHeaders(req, headers)
	return c.client.Do(req)
}

func setHeaders(req *http.Request, headers map[string]string) {
	for key, value := range headers {
		req.Header.Set(key, value)
	}
}
