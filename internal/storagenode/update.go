package storagenode

import "github.com/codepr/googol/internal/rpcapi"

// UpdateIndex applies one page's crawl result: the page's metadata is
// overwritten with the latest title/snippet, every term is added to the
// Bloom filter and its posting list, and every outgoing link gains this URL
// as a backlink source. Each per-key update (one posting list, one backlink
// set) is atomic with respect to readers; cross-key atomicity across terms
// or links is not required or provided.
//
// Re-indexing the same URL is idempotent from the caller's point of view:
// the index and backlink map only ever grow (a term or backlink already
// present is a no-op insert into its set), and the page record simply takes
// the latest title/snippet.
func (n *Node) UpdateIndex(url, title, snippet string, terms, outgoingLinks []string) {
	n.mu.Lock()
	n.pages[url] = rpcapi.PageInfo{Title: title, Snippet: snippet}
	for _, term := range terms {
		getOrCreateSet(n.index, term)[url] = struct{}{}
	}
	for _, link := range outgoingLinks {
		getOrCreateSet(n.backlinks, link)[url] = struct{}{}
	}
	n.mu.Unlock()

	n.filterMu.Lock()
	for _, term := range terms {
		n.filter.Add(term)
	}
	n.filterMu.Unlock()
}
