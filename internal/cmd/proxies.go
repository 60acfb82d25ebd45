package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/jimezsa/nursejobs/internal/config"
	"github.com/jimezsa/nursejobs/internal/network"
	"github.com/jimezsa/nursejobs/internal/scraper"
)

type ProxiesCmd struct {
	Check ProxyCheckCmd `cmd:"" help:"Check whether each proxy can read a job board."`
}

type ProxyCheckCmd struct {
	Site    string `help:"Site whose configured URL is probed (remotenurse, nursefern)." default:"remotenurse"`
	Target  string `help:"Explicit target URL; overrides --site."`
	Timeout int    `help:"Timeout in seconds." default:"15"`
	Proxies string `help:"Comma-separated proxy URLs." env:"NURSEJOBS_PROXIES"`
}

// Proxy check statuses.
const (
	proxyOK        = "ok"
	proxyChallenge = "challenge"
	proxyBlocked   = "blocked"
	proxyError     = "error"
)

type ProxyCheckResult struct {
	Proxy     string `json:"proxy"`
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// proxyProbe fetches target through a client pinned to one proxy.
type proxyProbe func(ctx context.Context, proxy string, target string, timeout time.Duration) error

func (p *ProxyCheckCmd) Run(ctx *Context) error {
	proxies, err := config.LoadProxies(p.Proxies)
	if err != nil {
		return err
	}
	if len(proxies) == 0 {
		return network.ErrNoProxies
	}
	target, err := p.target(ctx.Config)
	if err != nil {
		return err
	}

	timeout := time.Duration(p.Timeout) * time.Second
	results := checkProxies(ctx.baseContext(), proxies, target, timeout, p.probe)
	return writeProxyResults(ctx, target, results)
}

func (p *ProxyCheckCmd) target(cfg config.Config) (string, error) {
	if target := strings.TrimSpace(p.Target); target != "" {
		return target, nil
	}
	site := strings.ToLower(strings.TrimSpace(p.Site))
	if target := strings.TrimSpace(cfg.URLs[site]); target != "" {
		return target, nil
	}
	if target := scraper.DefaultURLs[site]; target != "" {
		return target, nil
	}
	return "", fmt.Errorf("unknown site %q (available: %s)", p.Site, strings.Join(scraper.Sites(), ", "))
}

func (p *ProxyCheckCmd) probe(ctx context.Context, proxy string, target string, timeout time.Duration) error {
	rotator, err := network.NewRotator([]string{proxy}, time.Minute)
	if err != nil {
		return err
	}
	client, err := network.NewClient(network.ClientOptions{Rotator: rotator, TimeoutSeconds: p.Timeout})
	if err != nil {
		return err
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return scraper.Probe(probeCtx, client, target)
}

// checkProxies probes every proxy concurrently and keeps input order.
func checkProxies(ctx context.Context, proxies []string, target string, timeout time.Duration, probe proxyProbe) []ProxyCheckResult {
	results := make([]ProxyCheckResult, len(proxies))
	var wg sync.WaitGroup
	for i, proxy := range proxies {
		wg.Add(1)
		go func(i int, proxy string) {
			defer wg.Done()
			start := time.Now()
			err := probe(ctx, proxy, target, timeout)
			results[i] = classifyProbe(proxy, err)
			results[i].LatencyMS = time.Since(start).Milliseconds()
		}(i, proxy)
	}
	wg.Wait()
	return results
}

func classifyProbe(proxy string, err error) ProxyCheckResult {
	result := ProxyCheckResult{Proxy: proxy, Status: proxyOK}
	if err == nil {
		return result
	}
	result.Error = err.Error()

	var statusErr *network.StatusError
	switch {
	case errors.Is(err, scraper.ErrChallenge):
		result.Status = proxyChallenge
	case errors.As(err, &statusErr):
		result.Status = proxyBlocked
		if statusErr.Code != 403 && statusErr.Code != 429 {
			result.Status = fmt.Sprintf("%d", statusErr.Code)
		}
	default:
		result.Status = proxyError
	}
	return result
}

func writeProxyResults(ctx *Context, target string, results []ProxyCheckResult) error {
	if ctx.JSONOutput {
		enc := json.NewEncoder(ctx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if ctx.PlainText {
		for _, res := range results {
			fmt.Fprintf(ctx.Out, "%s\t%s\t%d\t%s\n", res.Proxy, res.Status, res.LatencyMS, res.Error)
		}
		return nil
	}

	if ctx.UI != nil {
		ctx.UI.Headerf("Proxy check against %s", target)
	}
	tw := tabwriter.NewWriter(ctx.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "proxy\tstatus\tlatency_ms\terror")
	for _, res := range results {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", res.Proxy, res.Status, res.LatencyMS, res.Error)
	}
	return tw.Flush()
}
