package storagenode

import "github.com/codepr/googol/internal/rpcapi"

// Search implements the conjunctive AND search algorithm: a Bloom-filter
// short-circuit per term, a set intersection across every term's posting
// list, and a relevance score per hit equal to its backlink count. The
// result is unordered; final relevance-descending sort is the Dispatcher's
// responsibility.
func (n *Node) Search(terms []string) []rpcapi.SearchResult {
	if len(terms) == 0 {
		return nil
	}

	n.filterMu.RLock()
	for _, t := range terms {
		if !n.filter.Might(t) {
			n.filterMu.RUnlock()
			return nil
		}
	}
	n.filterMu.RUnlock()

	n.mu.RLock()
	defer n.mu.RUnlock()

	matches, ok := n.index[terms[0]]
	if !ok || len(matches) == 0 {
		return nil
	}
	// Copy so we can shrink freely without mutating the live index.
	current := make(map[string]struct{}, len(matches))
	for u := range matches {
		current[u] = struct{}{}
	}

	for _, term := range terms[1:] {
		next, ok := n.index[term]
		if !ok || len(next) == 0 {
			return nil
		}
		for u := range current {
			if _, ok := next[u]; !ok {
				delete(current, u)
			}
		}
		if len(current) == 0 {
			return nil
		}
	}

	results := make([]rpcapi.SearchResult, 0, len(current))
	for u := range current {
		page := n.pages[u]
		relevance := len(n.backlinks[u])
		results = append(results, rpcapi.SearchResult{
			URL:       u,
			Title:     page.Title,
			Snippet:   page.Snippet,
			Relevance: relevance,
		})
	}
	return results
}

// Backlinks returns the (duplicate-free, unordered) set of pages that link
// to url.
func (n *Node) Backlinks(url string) []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return setToSlice(n.backlinks[url])
}
