package storagenode

import (
	"testing"

	"github.com/benbjohnson/clock"
)

func newTestNode(t *testing.T) *Node {
	t.Helper()
	cfg := Config{
		Name:          "barrel0",
		IsPrimary:     true,
		BloomExpected: 1000,
		BloomFalsePos: 0.01,
		StateDir:      t.TempDir(),
	}
	return New(cfg, clock.NewMock(), nil)
}

func TestEmptySystemSearchReturnsEmpty(t *testing.T) {
	n := newTestNode(t)
	results := n.Search([]string{"anything"})
	if len(results) != 0 {
		t.Fatalf("expected empty results, got %v", results)
	}
}

func TestIndexThenSearch(t *testing.T) {
	n := newTestNode(t)
	n.UpdateIndex("http://a", "A", "hello world", []string{"hello", "world"}, []string{"http://b"})

	results := n.Search([]string{"hello"})
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.URL != "http://a" || r.Title != "A" || r.Snippet != "hello world" || r.Relevance != 0 {
		t.Fatalf("unexpected result: %+v", r)
	}
}

func TestBacklinkDrivesRelevance(t *testing.T) {
	n := newTestNode(t)
	n.UpdateIndex("http://a", "A", "hello world", []string{"hello", "world"}, []string{"http://b"})
	n.UpdateIndex("http://c", "C", "hello planet", []string{"hello", "planet"}, []string{"http://a"})

	results := n.Search([]string{"hello"})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	byURL := map[string]int{}
	for _, r := range results {
		byURL[r.URL] = r.Relevance
	}
	if byURL["http://a"] != 1 {
		t.Fatalf("expected http://a relevance 1, got %d", byURL["http://a"])
	}
	if byURL["http://c"] != 0 {
		t.Fatalf("expected http://c relevance 0, got %d", byURL["http://c"])
	}
}

func TestConjunctiveAND(t *testing.T) {
	n := newTestNode(t)
	n.UpdateIndex("http://p1", "P1", "x y", []string{"x", "y"}, nil)
	n.UpdateIndex("http://p2", "P2", "x", []string{"x"}, nil)

	results := n.Search([]string{"x", "y"})
	if len(results) != 1 || results[0].URL != "http://p1" {
		t.Fatalf("expected singleton [http://p1], got %v", results)
	}
}

func TestEmptyTermsReturnsEmpty(t *testing.T) {
	n := newTestNode(t)
	n.UpdateIndex("http://a", "A", "x", []string{"x"}, nil)
	if results := n.Search(nil); len(results) != 0 {
		t.Fatalf("expected empty for empty terms, got %v", results)
	}
}

func TestSearchOnNeverIndexedTermIsEmpty(t *testing.T) {
	n := newTestNode(t)
	n.UpdateIndex("http://a", "A", "x", []string{"x"}, nil)
	if results := n.Search([]string{"never-seen"}); len(results) != 0 {
		t.Fatalf("expected empty, got %v", results)
	}
}

func TestUpdateIndexIsObservationallyIdempotent(t *testing.T) {
	n := newTestNode(t)
	n.UpdateIndex("http://a", "A", "hello", []string{"hello"}, []string{"http://b"})
	n.UpdateIndex("http://a", "A", "hello", []string{"hello"}, []string{"http://b"})

	results := n.Search([]string{"hello"})
	if len(results) != 1 {
		t.Fatalf("expected 1 result after repeated identical update, got %d", len(results))
	}
	if got := n.Backlinks("http://b"); len(got) != 1 {
		t.Fatalf("expected 1 backlink source, got %v", got)
	}
}

func TestMonotonicGrowth(t *testing.T) {
	n := newTestNode(t)
	n.UpdateIndex("http://a", "A", "x", []string{"x"}, nil)
	words1 := n.wordCount()
	n.UpdateIndex("http://b", "B", "y", []string{"y"}, nil)
	words2 := n.wordCount()
	if words2 < words1 {
		t.Fatalf("index shrank: %d -> %d", words1, words2)
	}
}

func TestBarrelStatsIsNonEmpty(t *testing.T) {
	n := newTestNode(t)
	n.UpdateIndex("http://a", "A", "x", []string{"x"}, nil)
	stats := n.BarrelStats()
	if stats == "" {
		t.Fatal("expected non-empty BarrelStats digest")
	}
}
