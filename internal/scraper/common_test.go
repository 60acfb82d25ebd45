package scraper

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/jimezsa/nursejobs/internal/network"
)

// fakeDoer answers requests from a handler keyed on the request.
type fakeDoer struct {
	handle func(req *fhttp.Request) (int, string)
	calls  []string
}

func (f *fakeDoer) Do(req *fhttp.Request) (*fhttp.Response, error) {
	f.calls = append(f.calls, req.URL.String())
	status, body := f.handle(req)
	if status == 0 {
		return nil, errors.New("connection refused")
	}
	return &fhttp.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    req,
	}, nil
}

func pages(routes map[string]string) *fakeDoer {
	return &fakeDoer{handle: func(req *fhttp.Request) (int, string) {
		body, ok := routes[req.URL.Path]
		if !ok {
			return 404, "not found"
		}
		return 200, body
	}}
}

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func TestAbsoluteURL(t *testing.T) {
	base := "https://example.com/path/page"
	cases := []struct {
		href string
		want string
	}{
		{"/jobs/1", "https://example.com/jobs/1"},
		{"https://other.com/a", "https://other.com/a"},
		{"//cdn.example.com/asset", "https://cdn.example.com/asset"},
		{"  ", ""},
	}

	for _, tc := range cases {
		got := absoluteURL(base, tc.href)
		if got != tc.want {
			t.Fatalf("absoluteURL(%q) = %q, want %q", tc.href, got, tc.want)
		}
	}
}

func TestStringValue(t *testing.T) {
	cases := []struct {
		value any
		want  string
	}{
		{nil, ""},
		{"  RN  ", "RN"},
		{float64(403), "403"},
		{[]any{"CA", "", "TX"}, "CA, TX"},
		{map[string]any{"name": "Acme"}, "Acme"},
		{true, "true"},
	}
	for _, tc := range cases {
		if got := stringValue(tc.value); got != tc.want {
			t.Fatalf("stringValue(%v) = %q, want %q", tc.value, got, tc.want)
		}
	}
}

func TestFetchBodyDetectsChallenge(t *testing.T) {
	doer := &fakeDoer{handle: func(*fhttp.Request) (int, string) {
		return 403, "<html><title>Just a moment...</title></html>"
	}}
	_, err := fetchBody(context.Background(), doer, "https://example.com/", nil)
	if !errors.Is(err, ErrChallenge) {
		t.Fatalf("fetchBody() error = %v, want ErrChallenge", err)
	}
}

func TestFetchBodyStatusError(t *testing.T) {
	doer := &fakeDoer{handle: func(*fhttp.Request) (int, string) { return 500, "oops" }}
	_, err := fetchBody(context.Background(), doer, "https://example.com/", nil)
	if !errors.Is(err, network.ErrRequestFailed) {
		t.Fatalf("fetchBody() error = %v, want ErrRequestFailed", err)
	}
}

func TestProbe(t *testing.T) {
	ok := &fakeDoer{handle: func(*fhttp.Request) (int, string) { return 200, "<html>jobs</html>" }}
	if err := Probe(context.Background(), ok, "https://example.com/"); err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	blocked := &fakeDoer{handle: func(*fhttp.Request) (int, string) {
		return 200, `<script src="/cdn-cgi/challenge-platform/h/b"></script>`
	}}
	if err := Probe(context.Background(), blocked, "https://example.com/"); !errors.Is(err, ErrChallenge) {
		t.Fatalf("Probe() error = %v, want ErrChallenge", err)
	}
}

func TestFetchBodySetsHeaders(t *testing.T) {
	var accept string
	doer := &fakeDoer{handle: func(req *fhttp.Request) (int, string) {
		accept = req.Header.Get("accept")
		return 200, "{}"
	}}
	var out map[string]any
	if err := fetchJSON(context.Background(), doer, "https://example.com/api", &out); err != nil {
		t.Fatalf("fetchJSON() error = %v", err)
	}
	if accept != "application/json" {
		t.Fatalf("accept header = %q", accept)
	}
}

func TestNormalizeSites(t *testing.T) {
	got := NormalizeSites([]string{" RemoteNurse ", "", "www.nursefern"})
	if strings.Join(got, ",") != "remotenurse,nursefern" {
		t.Fatalf("NormalizeSites() = %v", got)
	}
	if strings.Join(Sites(), ",") != "nursefern,remotenurse" {
		t.Fatalf("Sites() = %v", Sites())
	}
}
