package network

import (
	"errors"
	"fmt"
	"math/rand"
	"net/url"
	"sync"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
	fhttpcookiejar "github.com/bogdanfinn/fhttp/cookiejar"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"golang.org/x/time/rate"
)

var ErrRequestFailed = errors.New("request failed")

const defaultTimeoutSeconds = 30

// Doer is the request surface the scrapers need.
type Doer interface {
	Do(req *fhttp.Request) (*fhttp.Response, error)
}

type ClientOptions struct {
	Rotator *Rotator
	// Interval is the minimum spacing between requests from one client.
	// Zero disables pacing.
	Interval       time.Duration
	TimeoutSeconds int
}

// Client sends browser-fingerprinted requests, one proxy and user agent per
// request, paced by a token bucket.
type Client struct {
	http       Doer
	proxies    proxySetter
	rotator    *Rotator
	limiter    *rate.Limiter
	userAgents []string
	rand       *rand.Rand
	mu         sync.Mutex
}

type proxySetter interface {
	SetProxy(proxyURL string) error
}

func NewClient(opts ClientOptions) (*Client, error) {
	jar, _ := fhttpcookiejar.New(nil)

	timeout := opts.TimeoutSeconds
	if timeout <= 0 {
		timeout = defaultTimeoutSeconds
	}
	client, err := tls_client.NewHttpClient(
		tls_client.NewNoopLogger(),
		tls_client.WithClientProfile(profiles.Chrome_120),
		tls_client.WithTimeoutSeconds(timeout),
		tls_client.WithCookieJar(jar),
	)
	if err != nil {
		return nil, err
	}

	c := newClient(client, opts)
	c.proxies = client
	return c, nil
}

func newClient(http Doer, opts ClientOptions) *Client {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.Interval > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.Interval), 1)
	}
	return &Client{
		http:       http,
		rotator:    opts.Rotator,
		limiter:    limiter,
		userAgents: append([]string{}, userAgents...),
		rand:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Do waits for the limiter, then sends req through the next healthy proxy.
// Non-2xx responses are returned as-is; use CheckStatus to reject them.
func (c *Client) Do(req *fhttp.Request) (*fhttp.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}

	proxy, err := c.rotateProxy()
	if err != nil {
		return nil, err
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.randomUA())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrRequestFailed, req.Method, req.URL, err)
	}
	if proxy != nil {
		c.rotator.Report(proxy, resp.StatusCode)
	}
	return resp, nil
}

// CheckStatus turns 4xx and 5xx responses into ErrRequestFailed.
func CheckStatus(resp *fhttp.Response) error {
	if resp.StatusCode >= 400 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

// StatusError reports an HTTP error status. It matches ErrRequestFailed.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d", e.Code)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrRequestFailed
}

func (c *Client) rotateProxy() (*url.URL, error) {
	if c.rotator == nil || c.rotator.Len() == 0 {
		return nil, nil
	}
	proxy, err := c.rotator.Next()
	if err != nil {
		return nil, err
	}

	if proxy != nil && c.proxies != nil {
		if err := c.proxies.SetProxy(proxy.String()); err != nil {
			return nil, fmt.Errorf("set proxy %s: %w", proxy.Redacted(), err)
		}
	}
	return proxy, nil
}

func (c *Client) randomUA() string {
	if len(c.userAgents) == 0 {
		return ""
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userAgents[c.rand.Intn(len(c.userAgents))]
}
