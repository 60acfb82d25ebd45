package network

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
)

var ErrNoProxies = errors.New("no proxies available")

// ProxyState is a point-in-time view of one pool entry.
type ProxyState struct {
	Proxy       string    `json:"proxy"`
	Bans        int       `json:"bans"`
	BannedUntil time.Time `json:"banned_until,omitempty"`
}

type proxyEntry struct {
	url         *url.URL
	bans        int
	bannedUntil time.Time
}

// Rotator hands out proxies round-robin and benches any proxy that gets
// blocked or throttled for banDuration.
type Rotator struct {
	entries     []*proxyEntry
	banDuration time.Duration
	index       int
	now         func() time.Time
	mu          sync.Mutex
}

// NewRotator parses raw proxy entries. Blank entries are skipped and a bare
// host:port is treated as http.
func NewRotator(raw []string, banDuration time.Duration) (*Rotator, error) {
	rotator := &Rotator{banDuration: banDuration, now: time.Now}
	for _, proxy := range raw {
		proxy = strings.TrimSpace(proxy)
		if proxy == "" {
			continue
		}
		if !strings.Contains(proxy, "://") {
			proxy = "http://" + proxy
		}
		u, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("proxy %q: %w", proxy, err)
		}
		if u.Host == "" {
			return nil, fmt.Errorf("proxy %q: missing host", proxy)
		}
		rotator.entries = append(rotator.entries, &proxyEntry{url: u})
	}
	return rotator, nil
}

func (r *Rotator) Len() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Next returns the next proxy that is not benched, or ErrNoProxies when the
// whole pool is benched.
func (r *Rotator) Next() (*url.URL, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.entries) == 0 {
		return nil, ErrNoProxies
	}
	now := r.now()
	for range r.entries {
		entry := r.entries[r.index]
		r.index = (r.index + 1) % len(r.entries)
		if !entry.bannedUntil.After(now) {
			return entry.url, nil
		}
	}
	return nil, ErrNoProxies
}

// Report benches proxy after a 403 or 429; other statuses are ignored.
func (r *Rotator) Report(proxy *url.URL, status int) {
	if proxy == nil {
		return
	}
	if status != fhttp.StatusForbidden && status != fhttp.StatusTooManyRequests {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if entry := r.lookup(proxy); entry != nil {
		entry.bans++
		entry.bannedUntil = r.now().Add(r.banDuration)
	}
}

// Snapshot lists every proxy with its ban count. BannedUntil is zero for
// proxies that are currently usable.
func (r *Rotator) Snapshot() []ProxyState {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	states := make([]ProxyState, 0, len(r.entries))
	for _, entry := range r.entries {
		state := ProxyState{Proxy: entry.url.Redacted(), Bans: entry.bans}
		if entry.bannedUntil.After(now) {
			state.BannedUntil = entry.bannedUntil
		}
		states = append(states, state)
	}
	return states
}

func (r *Rotator) lookup(proxy *url.URL) *proxyEntry {
	key := proxy.String()
	for _, entry := range r.entries {
		if entry.url.String() == key {
			return entry
		}
	}
	return nil
}
