// Package fetch provides the default page-fetch collaborator: given a URL
// it downloads the page, extracts its title, outgoing anchor links and a
// stemmed term set, and trims a citation snippet from the token stream.
package fetch

import "context"

// Page is the parsed result of fetching a single URL, the payload a crawler
// worker turns into an updateIndex call.
type Page struct {
	URL     string
	Title   string
	Snippet string   // first 30 tokens of the token stream, space-joined, trimmed
	Terms   []string // full token stream, lower-cased and stemmed, deduplicated
	Links   []string // absolute outgoing URLs found on the page
}

// Fetcher downloads and parses a single URL. Implementations must respect
// ctx's deadline; the crawler worker applies a 10s timeout via ctx.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
}

const snippetTokenLimit = 30
