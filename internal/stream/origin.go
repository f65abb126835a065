package stream

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultDialTimeout           = 5 * time.Second
	defaultResponseHeaderTimeout = 15 * time.Second
	defaultIdleConnTimeout       = 90 * time.Second
	defaultMaxIdleConnsPerHost   = 32
)

// Response is an origin reply: status, end-to-end headers and a body the
// caller must close.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// Origin fetches the bytes of a stored file. rangeHeader is forwarded
// unchanged when non-empty. Implementations must bind all I/O to ctx.
type Origin interface {
	Fetch(ctx context.Context, fileID, rangeHeader string) (*Response, error)
}

// NewUpstreamClient returns the shared client used to reach the storage
// service. It has no overall timeout because bodies are long-lived streams;
// only dialing and waiting for response headers are bounded. Transparent gzip
// is disabled so relayed bodies and lengths stay byte-exact.
func NewUpstreamClient(headerTimeout time.Duration) *http.Client {
	if headerTimeout <= 0 {
		headerTimeout = defaultResponseHeaderTimeout
	}

	dialTimeout := defaultDialTimeout
	if headerTimeout < dialTimeout {
		dialTimeout = headerTimeout
	}

	return &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}).DialContext,
			ForceAttemptHTTP2:     true,
			DisableCompression:    true,
			MaxIdleConns:          2 * defaultMaxIdleConnsPerHost,
			MaxIdleConnsPerHost:   defaultMaxIdleConnsPerHost,
			IdleConnTimeout:       defaultIdleConnTimeout,
			TLSHandshakeTimeout:   dialTimeout,
			ResponseHeaderTimeout: headerTimeout,
			ExpectContinueTimeout: time.Second,
		},
	}
}

// HTTPOrigin reads files from the storage service download endpoint,
// authenticating with the proxy's own service credential.
type HTTPOrigin struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPOrigin constructs an origin for "<baseURL>/api/files/<id>/download".
func NewHTTPOrigin(baseURL, serviceToken string, client *http.Client) (*HTTPOrigin, error) {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, errors.New("storage base url must be http or https")
	}
	if client == nil {
		client = NewUpstreamClient(0)
	}
	return &HTTPOrigin{baseURL: baseURL, token: serviceToken, client: client}, nil
}

// DownloadURL returns the storage service URL for a file.
func (o *HTTPOrigin) DownloadURL(fileID string) string {
	return o.baseURL + "/api/files/" + url.PathEscape(fileID) + "/download"
}

// Fetch issues the upstream request. Any non-2xx status is returned as a
// Response, not an error; only transport failures are errors.
func (o *HTTPOrigin) Fetch(ctx context.Context, fileID, rangeHeader string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.DownloadURL(fileID), nil)
	if err != nil {
		return nil, &UpstreamError{Op: "build upstream request", Err: err}
	}
	if o.token != "" {
		req.Header.Set("Authorization", "Bearer "+o.token)
	}
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, &UpstreamError{Op: "fetch upstream", Err: err}
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: resp.Body}, nil
}
