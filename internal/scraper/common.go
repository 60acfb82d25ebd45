package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/jimezsa/nursejobs/internal/network"
)

const maxBodyBytes = 10 << 20

var challengeMarkers = []string{
	"Just a moment",
	"challenge-platform",
}

func fetchBody(ctx context.Context, client network.Doer, target string, headers map[string]string) ([]byte, error) {
	req, err := fhttp.NewRequestWithContext(ctx, fhttp.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	applyHeaders(req, headers)
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", target, err)
	}
	if isChallenge(body) {
		return nil, ErrChallenge
	}
	if err := network.CheckStatus(resp); err != nil {
		return nil, err
	}
	return body, nil
}

func fetchDocument(ctx context.Context, client network.Doer, target string, headers map[string]string) (*goquery.Document, error) {
	body, err := fetchBody(ctx, client, target, headers)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(bytes.NewReader(body))
}

func fetchJSON(ctx context.Context, client network.Doer, target string, out any) error {
	body, err := fetchBody(ctx, client, target, map[string]string{
		"accept": "application/json",
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", target, err)
	}
	return nil
}

// Probe fetches target once and reports whether a scraper could read it: nil,
// ErrChallenge for an anti-bot interstitial, or the fetch/status error.
func Probe(ctx context.Context, client network.Doer, target string) error {
	_, err := fetchBody(ctx, client, target, nil)
	return err
}

func isChallenge(body []byte) bool {
	for _, marker := range challengeMarkers {
		if bytes.Contains(body, []byte(marker)) {
			return true
		}
	}
	return false
}

func applyHeaders(req *fhttp.Request, headers map[string]string) {
	if headers == nil {
		headers = map[string]string{}
	}
	if _, ok := headers["accept"]; !ok {
		headers["accept"] = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	}
	if _, ok := headers["accept-language"]; !ok {
		headers["accept-language"] = "en-US,en;q=0.9"
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
}

func cleanText(value string) string {
	value = html.UnescapeString(value)
	return strings.Join(strings.Fields(value), " ")
}

func absoluteURL(base string, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(ref).String()
}

// stringValue flattens a decoded JSON value into display text. Lists are
// joined with ", " and empty entries dropped.
func stringValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s := stringValue(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		return stringValue(v["name"])
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
