package telegram

import (
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/tagbot/core/telegram/netutil"
)

// httpSettings are the transport limits for Bot API calls. The client
// timeout must exceed the long-poll timeout.
var httpSettings = struct {
	dial, tlsHandshake, idle, responseHeader, client, keepAlive time.Duration
	retries                                                     int
	backoff                                                     time.Duration
}{
	dial:           5 * time.Second,
	tlsHandshake:   5 * time.Second,
	idle:           30 * time.Second,
	responseHeader: 5 * time.Second,
	client:         30 * time.Second,
	keepAlive:      30 * time.Second,
	retries:        3,
	backoff:        2 * time.Second,
}

// BuildHTTPClient returns an HTTP client that retries transient network failures.
func BuildHTTPClient() *http.Client {
	s := httpSettings
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: s.dial, KeepAlive: s.keepAlive}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       s.idle,
		TLSHandshakeTimeout:   s.tlsHandshake,
		ResponseHeaderTimeout: s.responseHeader,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{
		Timeout:   s.client,
		Transport: &retryTransport{base: transport, retries: s.retries, backoff: s.backoff},
	}
}

// retryTransport replays a request whose body can be rewound.
type retryTransport struct {
	base    http.RoundTripper
	retries int
	backoff time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	for attempt := 1; err != nil && attempt <= t.retries && netutil.ShouldRetry(err); attempt++ {
		if req.Body != nil && req.GetBody == nil {
			return nil, err
		}
		if werr := netutil.Wait(req.Context(), netutil.Backoff(t.backoff, attempt)); werr != nil {
			return nil, werr
		}
		retry := req.Clone(req.Context())
		if req.GetBody != nil {
			body, berr := req.GetBody()
			if berr != nil {
				return nil, berr
			}
			retry.Body = body
		}
		resp, err = t.base.RoundTrip(retry)
	}
	return resp, err
}
