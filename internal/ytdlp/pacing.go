// Package ytdlp holds the pure, stateless knowledge about driving the
// external yt-dlp extractor: building argument vectors and classifying
// domains for pacing.
package ytdlp

import (
	"math/rand"
	"strings"
	"time"
)

// fastDomains tolerate bulk traffic; everything else is treated as
// rate-limit sensitive.
var fastDomains = []string{
	"youtube.com",
	"youtu.be",
}

// bulkDomains are sources where a single post routinely expands to many
// items, so playlist expansion is forced.
var bulkDomains = []string{
	"instagram.com",
	"www.instagram.com",
}

// Inter-job cooldown bounds in milliseconds
const (
	fastDelayMinMs = 1000
	fastDelayMaxMs = 3000
	safeDelayMinMs = 5000
	safeDelayMaxMs = 20000
)

// IsFastDomain reports whether the URL targets a bulk-tolerant domain
func IsFastDomain(url string) bool {
	return matchesAny(url, fastDomains)
}

// IsBulkDomain reports whether the URL targets a bulk (forced-playlist)
// domain
func IsBulkDomain(url string) bool {
	return matchesAny(url, bulkDomains)
}

func matchesAny(url string, domains []string) bool {
	for _, d := range domains {
		if strings.Contains(url, d) {
			return true
		}
	}
	return false
}

// JobDelay computes the inter-job cooldown for a source URL: uniformly
// random within [1s,3s] for fast domains and [5s,20s] for all others.
// Applied after a job settles and before the next dequeue, never during
// a job.
func JobDelay(url string) time.Duration {
	min, max := safeDelayMinMs, safeDelayMaxMs
	if IsFastDomain(url) {
		min, max = fastDelayMinMs, fastDelayMaxMs
	}
	ms := min + rand.Intn(max-min+1)
	return time.Duration(ms) * time.Millisecond
}
