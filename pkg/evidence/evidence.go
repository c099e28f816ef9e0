package evidence

import (
	"context"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/vulntriage/vulntriage/pkg/search"
)

// Facts are the structured hints extracted from one search hit. They are
// weak evidence, the reasoning step treats them as context, not ground truth.
type Facts struct {
	HasPublicPoC bool     `json:"has_public_poc"`
	InTheWild    bool     `json:"in_the_wild"`
	ReportedCVSS *float64 `json:"reported_cvss,omitempty"`
	Platforms    []string `json:"platforms,omitempty"`
}

type Item struct {
	SourceURL string `json:"source_url"`
	Title     string `json:"title"`
	Snippet   string `json:"snippet"`
	Facts     Facts  `json:"facts"`
}

type Retriever struct {
	Backend search.Backend

	MaxResults   int
	QueryTimeout time.Duration

	// Throttle spaces out the queries to avoid rate limiting
	Throttle time.Duration
}

const (
	defaultMaxResults   = 3
	defaultQueryTimeout = 10 * time.Second
)

// Retrieve issues fresh search queries for the CVE and extracts facts from
// the hits. A failed or timed out query yields zero items, never an error.
func (r *Retriever) Retrieve(ctx context.Context, cveID, description string) []Item {
	max := r.MaxResults
	if max < 1 {
		max = defaultMaxResults
	}
	timeout := r.QueryTimeout
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}

	items := []Item{}
	seen := map[string]bool{}

	for i, query := range buildQueries(cveID, description) {
		if i > 0 && r.Throttle > 0 {
			time.Sleep(r.Throttle)
		}

		qctx, cancel := context.WithTimeout(ctx, timeout)
		results, err := r.Backend.Search(qctx, query, max)
		cancel()

		if err != nil {
			log.Printf("search skipped for %s, error: %v", cveID, err)
			continue
		}

		for _, res := range results {
			if res.URL == "" || seen[res.URL] {
				continue
			}
			seen[res.URL] = true

			items = append(items, Item{
				SourceURL: res.URL,
				Title:     res.Title,
				Snippet:   res.Snippet,
				Facts:     extractFacts(res.Title + " " + res.Snippet),
			})
		}
	}

	return items
}

func buildQueries(cveID, description string) []string {
	queries := []string{
		cveID + " vulnerability exploit poc cvss score github",
	}

	if terms := keyTerms(description, 4); len(terms) > 0 {
		queries = append(queries, cveID+" "+strings.Join(terms, " ")+" in the wild")
	}

	return queries
}

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "that": true,
	"this": true, "from": true, "allows": true, "could": true, "which": true,
	"vulnerability": true, "via": true, "versions": true, "version": true,
	"before": true, "prior": true, "when": true, "attacker": true,
}

// keyTerms picks the longest informative words of the description
func keyTerms(description string, max int) []string {
	wordRegex := regexp.MustCompile(`[A-Za-z][A-Za-z0-9._-]{3,}`)
	words := wordRegex.FindAllString(description, -1)

	terms := []string{}
	seen := map[string]bool{}

	for _, w := range words {
		lw := strings.ToLower(w)
		if stopWords[lw] || seen[lw] || strings.HasPrefix(lw, "cve-") {
			continue
		}
		seen[lw] = true
		terms = append(terms, w)

		if len(terms) >= max {
			break
		}
	}

	return terms
}

var (
	pocTokens = []string{
		"exploit-db", "metasploit", "proof of concept", "proof-of-concept",
		"poc", "exploit code", "github.com",
	}
	wildTokens = []string{
		"in the wild", "actively exploited", "active exploitation",
		"ransomware", "mass exploitation", "observed exploitation",
	}
	platformTokens = []string{
		"windows", "linux", "macos", "android", "ios",
	}

	cvssRegex = regexp.MustCompile(`(?i)cvss[^0-9]{0,20}(10(?:\.0)?|[0-9]\.[0-9])`)
)

func extractFacts(text string) Facts {
	lower := strings.ToLower(text)

	facts := Facts{}

	for _, t := range pocTokens {
		if strings.Contains(lower, t) {
			facts.HasPublicPoC = true
			break
		}
	}

	for _, t := range wildTokens {
		if strings.Contains(lower, t) {
			facts.InTheWild = true
			break
		}
	}

	for _, t := range platformTokens {
		if strings.Contains(lower, t) {
			facts.Platforms = append(facts.Platforms, t)
		}
	}

	if m := cvssRegex.FindStringSubmatch(text); m != nil {
		if score, err := strconv.ParseFloat(m[1], 64); err == nil && score <= 10.0 {
			facts.ReportedCVSS = &score
		}
	}

	return facts
}

// Summary condenses the items for the reasoning prompt
func Summary(items []Item) string {
	if len(items) == 0 {
		return "No relevant search results found."
	}

	var b strings.Builder
	for _, it := range items {
		b.WriteString("- Title: " + it.Title + "\n")
		b.WriteString("  Snippet: " + it.Snippet + "\n")
		b.WriteString("  Source: " + it.SourceURL + "\n")

		hints := []string{}
		if it.Facts.HasPublicPoC {
			hints = append(hints, "public PoC mentioned")
		}
		if it.Facts.InTheWild {
			hints = append(hints, "in-the-wild exploitation mentioned")
		}
		if it.Facts.ReportedCVSS != nil {
			hints = append(hints, "CVSS "+strconv.FormatFloat(*it.Facts.ReportedCVSS, 'f', 1, 64))
		}
		if len(hints) > 0 {
			b.WriteString("  Hints: " + strings.Join(hints, ", ") + "\n")
		}
	}

	return b.String()
}
