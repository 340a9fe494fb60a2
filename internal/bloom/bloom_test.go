package bloom

import (
	"strings"
	"testing"
)

func TestAddThenMightIsAlwaysTrue(t *testing.T) {
	f := New(1000, 0.01)
	terms := []string{"hello", "world", "distributed", "search", "engine"}
	for _, term := range terms {
		f.Add(term)
	}
	for _, term := range terms {
		if !f.Might(term) {
			t.Fatalf("Might(%q) = false after Add, false negatives are not allowed", term)
		}
	}
}

func TestMightOnNeverAddedTermCanBeFalse(t *testing.T) {
	f := New(1000, 0.01)
	f.Add("hello")
	if f.Might("definitely-not-added-xyz123") {
		// Not a hard failure (false positives are allowed), but with a
		// generous filter size for a single element this should not occur.
		t.Log("unexpected false positive for an unrelated term; filter sizing may be too tight")
	}
}

func TestRepeatedAddIsIdempotentForMight(t *testing.T) {
	f := New(10, 0.01)
	f.Add("term")
	f.Add("term")
	f.Add("term")
	if !f.Might("term") {
		t.Fatal("Might should be true after repeated Add of the same term")
	}
}

func TestSizingMatchesSpecFormula(t *testing.T) {
	// m = ceil(-100*ln(0.01)/ln(2)^2) = ceil(958.51) = 959;
	// k = ceil((959/100)*ln(2)) = ceil(6.65) = 7.
	f := New(100, 0.01)
	if f.M() != 959 || f.K() != 7 {
		t.Fatalf("expected m=959 k=7, got m=%d k=%d", f.M(), f.K())
	}
}

func TestRebuildFromPreservesMembership(t *testing.T) {
	terms := []string{"a", "b", "c", "d"}
	f := RebuildFrom(terms, 100, 0.01)
	for _, term := range terms {
		if !f.Might(term) {
			t.Fatalf("RebuildFrom lost membership for %q", term)
		}
	}
}

func TestStringRendersFields(t *testing.T) {
	f := New(10, 0.1)
	f.Add("x")
	// m = ceil(-10*ln(0.1)/ln(2)^2) = 48, k = ceil(4.8*ln(2)) = 4, one Add.
	s := f.String()
	if !strings.HasPrefix(s, "BloomFilter[m=48,k=4,set=1,occ=") {
		t.Fatalf("String() = %q, want m=48, k=4, set=1 fields", s)
	}
}
