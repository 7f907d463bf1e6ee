package builtins

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"cmdrelay/internal/literal"

	"github.com/PuerkitoBio/goquery"
)

type titleFetcher struct {
	client    *http.Client
	maxBytes  int64
	userAgent string
}

func (f *titleFetcher) invoke(ctx context.Context, args literal.Args) (literal.Value, error) {
	raw, err := stringArg(args, "url")
	if err != nil {
		return literal.Value{}, err
	}
	title, err := f.fetchTitle(ctx, raw)
	if err != nil {
		return literal.Value{}, err
	}
	return literal.String(title), nil
}

func (f *titleFetcher) fetchTitle(ctx context.Context, raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("url has no host")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return "", fmt.Errorf("parse HTML: %w", err)
	}

	title := strings.Join(strings.Fields(doc.Find("title").First().Text()), " ")
	if title == "" {
		title = strings.Join(strings.Fields(doc.Find("h1").First().Text()), " ")
	}
	if title == "" {
		return "", fmt.Errorf("page has no title")
	}
	return title, nil
}
