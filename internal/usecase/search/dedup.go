package search

import (
	"strings"

	"github.com/kailas-cloud/serpdex/internal/domain/search/result"
)

// SelectTopURLs returns up to maxURLs distinct URLs in first-seen order.
// With a non-empty urlContains, a URL is kept only if it contains at least one entry.
func SelectTopURLs(results []result.Result, maxURLs int, urlContains []string) []string {
	if maxURLs <= 0 || len(results) == 0 {
		return []string{}
	}

	urls := make([]string, 0, min(maxURLs, len(results)))
	seen := make(map[string]struct{}, cap(urls))
	for _, r := range results {
		u := r.URL()
		if _, dup := seen[u]; dup {
			continue
		}
		if !matchesAny(u, urlContains) {
			continue
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
		if len(urls) == maxURLs {
			break
		}
	}
	return urls
}

func matchesAny(u string, substrings []string) bool {
	if len(substrings) == 0 {
		return true
	}
	for _, s := range substrings {
		if strings.Contains(u, s) {
			return true
		}
	}
	return false
}
