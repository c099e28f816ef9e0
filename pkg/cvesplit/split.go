package cvesplit

import (
	"regexp"
	"strings"
)

var cveRegex = regexp.MustCompile(`(?i)CVE-\d{4}-\d{4,7}`)

// Split extracts the unique CVE identifiers of a raw intelligence text.
// The order of first appearance is kept.
func Split(text string) []string {
	matches := cveRegex.FindAllString(text, -1)

	cves := []string{}
	seen := map[string]bool{}

	for _, m := range matches {
		id := strings.ToUpper(m)
		if seen[id] {
			continue
		}
		seen[id] = true
		cves = append(cves, id)
	}

	return cves
}

// Context returns the line of text which mentions the given CVE. The whole
// text is returned when the identifier has no line of its own.
func Context(text, cveID string) string {
	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(strings.ToUpper(line), strings.ToUpper(cveID)) {
			return strings.TrimSpace(line)
		}
	}
	return strings.TrimSpace(text)
}
