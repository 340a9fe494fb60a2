package fetch

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/PuerkitoBio/rehttp"
	"github.com/kljensen/snowball/english"
)

// excludedLinkExts are anchor targets that are never worth re-queueing as
// crawl candidates.
var excludedLinkExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".svg": true,
	".css": true, ".js": true, ".pdf": true, ".zip": true,
}

var tokenPattern = regexp.MustCompile(`[A-Za-z0-9]+`)

// HTTPFetcher is the default Fetcher: a std-library HTTP client wrapped in
// an exponential-jitter retry transport, goquery for DOM parsing, a
// per-domain robots.txt cache and a snowball stemmer for term normalization.
type HTTPFetcher struct {
	userAgent string
	client    *http.Client
	robots    *robotsCache
}

// New builds an HTTPFetcher. timeout bounds every single GET, retried up to
// 3 times with exponential jittered backoff on temporary errors.
func New(userAgent string, timeout time.Duration) *HTTPFetcher {
	transport := rehttp.NewTransport(
		&http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}},
		rehttp.RetryAll(rehttp.RetryMaxRetries(3), rehttp.RetryTemporaryErr()),
		rehttp.ExpJitterDelay(1, 10*time.Second),
	)
	client := &http.Client{Timeout: timeout, Transport: transport}
	return &HTTPFetcher{
		userAgent: userAgent,
		client:    client,
		robots:    newRobotsCache(client, userAgent),
	}
}

// Fetch downloads url, honoring ctx's deadline, and parses title, outgoing
// links and a term set from its HTML body. A URL disallowed by the target
// domain's robots.txt is rejected with an error rather than fetched.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch: parsing %s: %w", rawURL, err)
	}
	if !f.robots.allowed(target) {
		return nil, fmt.Errorf("fetch: %s disallowed by robots.txt", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: building request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	res, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %s: %w", rawURL, err)
	}
	defer res.Body.Close()
	if res.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("fetch: %s: %s", rawURL, res.Status)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch: parsing %s: %w", rawURL, err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	tokens := tokenPattern.FindAllString(doc.Find("body").Text(), -1)

	snippetLimit := len(tokens)
	if snippetLimit > snippetTokenLimit {
		snippetLimit = snippetTokenLimit
	}
	snippet := strings.TrimSpace(strings.Join(tokens[:snippetLimit], " "))

	terms := stemTerms(tokens)
	links := extractLinks(doc, target)

	return &Page{
		URL:     rawURL,
		Title:   title,
		Snippet: snippet,
		Terms:   terms,
		Links:   links,
	}, nil
}

// stemTerms lower-cases and stems every token, deduplicating while
// preserving first-seen order.
func stemTerms(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	terms := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		stemmed := english.Stem(strings.ToLower(tok), false)
		if stemmed == "" {
			continue
		}
		if _, ok := seen[stemmed]; ok {
			continue
		}
		seen[stemmed] = struct{}{}
		terms = append(terms, stemmed)
	}
	return terms
}

// extractLinks walks every anchor and canonical link tag, resolves it
// against base, and returns the deduplicated set of absolute http(s) URLs.
func extractLinks(doc *goquery.Document, base *url.URL) []string {
	seen := make(map[string]struct{})
	var links []string

	doc.Find("a,link").FilterFunction(func(_ int, sel *goquery.Selection) bool {
		href, hrefOk := sel.Attr("href")
		rel, relOk := sel.Attr("rel")
		anchorOK := hrefOk && sel.Is("a") && !excludedLinkExts[filepath.Ext(href)]
		canonicalOK := relOk && rel == "canonical" && hrefOk
		return anchorOK || canonicalOK
	}).Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		resolved, ok := resolveLink(base, href)
		if !ok {
			return
		}
		s := resolved.String()
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		links = append(links, s)
	})
	return links
}

func resolveLink(base *url.URL, href string) (*url.URL, bool) {
	parsed, err := url.Parse(href)
	if err != nil {
		return nil, false
	}
	resolved := base.ResolveReference(parsed)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return nil, false
	}
	return resolved, true
}
