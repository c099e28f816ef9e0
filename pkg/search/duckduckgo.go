package search

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

const ddgEndpoint = "https://html.duckduckgo.com/html/"

var (
	resultRegex  = regexp.MustCompile(`(?s)<a[^>]+class="result__a"[^>]+href="([^"]+)"[^>]*>(.*?)</a>`)
	snippetRegex = regexp.MustCompile(`(?s)<a[^>]+class="result__snippet"[^>]*>(.*?)</a>`)
	tagRegex     = regexp.MustCompile(`<[^>]+>`)
)

// DuckDuckGo queries the html endpoint, which needs no API key.
type DuckDuckGo struct {
	Cli *http.Client

	// Endpoint overrides the default url, used by tests
	Endpoint string
}

func (d *DuckDuckGo) Search(ctx context.Context, query string, max int) ([]Result, error) {
	endpoint := d.Endpoint
	if endpoint == "" {
		endpoint = ddgEndpoint
	}

	form := url.Values{}
	form.Set("q", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64)")

	res, err := d.Cli.Do(req)
	if err != nil {
		return nil, err
	}

	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	return parseResults(string(body), max), nil
}

func parseResults(body string, max int) []Result {
	links := resultRegex.FindAllStringSubmatch(body, -1)
	snippets := snippetRegex.FindAllStringSubmatch(body, -1)

	results := []Result{}
	for i, l := range links {
		if max > 0 && len(results) >= max {
			break
		}

		r := Result{
			URL:   cleanURL(l[1]),
			Title: cleanText(l[2]),
		}

		if i < len(snippets) {
			r.Snippet = cleanText(snippets[i][1])
		}

		if r.URL == "" {
			continue
		}

		results = append(results, r)
	}

	return results
}

// cleanURL resolves the duckduckgo redirect wrapper to the target url
func cleanURL(raw string) string {
	raw = html.UnescapeString(raw)

	if strings.Contains(raw, "duckduckgo.com/l/") {
		if u, err := url.Parse(raw); err == nil {
			if target := u.Query().Get("uddg"); target != "" {
				return target
			}
		}
	}

	return raw
}

func cleanText(raw string) string {
	text := tagRegex.ReplaceAllString(raw, "")
	return strings.TrimSpace(html.UnescapeString(text))
}
