// Package bloom implements the probabilistic set used by a Storage Node to
// short-circuit a search on terms it has never indexed. No false negatives
// are allowed: once a term has been added, Might(term) must always report
// true again afterwards.
package bloom

import (
	"fmt"
	"hash/fnv"
	"math"

	"github.com/bits-and-blooms/bitset"
)

// Filter is a Bloom filter parameterized by an expected element count and a
// target false-positive rate, as described in the data model: bit-array size
// m = ceil(-N*ln(p) / ln(2)^2), hash count k = ceil((m/N) * ln(2)), and a
// double-hash scheme hash_i(x) = |(h1(x) + i*h2(x)) mod m| with h2 = h1 >> 16.
type Filter struct {
	bits *bitset.BitSet
	m    uint
	k    uint
	n    uint // expected elements, kept only for reporting
	set  uint // number of Add calls observed, kept only for reporting
}

// New creates a Filter sized for n expected elements at false-positive rate
// p. n must be positive; p must be in (0, 1).
func New(n uint, p float64) *Filter {
	if n == 0 {
		n = 1
	}
	m := uint(math.Ceil(-float64(n) * math.Log(p) / (math.Ln2 * math.Ln2)))
	if m == 0 {
		m = 1
	}
	k := uint(math.Ceil((float64(m) / float64(n)) * math.Ln2))
	if k == 0 {
		k = 1
	}
	return &Filter{
		bits: bitset.New(m),
		m:    m,
		k:    k,
		n:    n,
	}
}

// platformHash is the "platform-stable hash" h1 referenced by the data
// model: FNV-1a over the UTF-8 bytes of x, stable across processes and Go
// versions (unlike the runtime's built-in map hash, which is randomized
// per-process).
func platformHash(x string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(x))
	return h.Sum64()
}

func (f *Filter) indexes(x string) []uint {
	h1 := platformHash(x)
	h2 := h1 >> 16 // logical (unsigned) shift, per the data model
	idx := make([]uint, f.k)
	for i := uint(0); i < f.k; i++ {
		combined := h1 + uint64(i)*h2
		idx[i] = uint(combined % uint64(f.m))
	}
	return idx
}

// Add sets the k bits for x. Adding the same x more than once is idempotent
// with respect to Might, though the reported cardinality below is an
// approximation and does not itself track distinct elements.
func (f *Filter) Add(x string) {
	for _, i := range f.indexes(x) {
		f.bits.Set(i)
	}
	f.set++
}

// Might reports whether x may have been added. False means x was definitely
// never added; true means x was probably added (or is a false positive).
// Must never return false for an x that was actually added.
func (f *Filter) Might(x string) bool {
	for _, i := range f.indexes(x) {
		if !f.bits.Test(i) {
			return false
		}
	}
	return true
}

// Cardinality returns the number of Add calls observed. It exists purely for
// reporting (getBarrelStats) and is not a distinct-element estimator.
func (f *Filter) Cardinality() uint {
	return f.set
}

// OccupancyRate returns the fraction of bits currently set, in [0, 1]. It
// exists purely for reporting.
func (f *Filter) OccupancyRate() float64 {
	if f.m == 0 {
		return 0
	}
	return float64(f.bits.Count()) / float64(f.m)
}

// M returns the bit-array size.
func (f *Filter) M() uint { return f.m }

// K returns the number of hash functions.
func (f *Filter) K() uint { return f.k }

// String renders the "BloomFilter[m=…,k=…,set=…,occ=…%]" fragment used by
// getBarrelStats.
func (f *Filter) String() string {
	return fmt.Sprintf("BloomFilter[m=%d,k=%d,set=%d,occ=%.2f%%]",
		f.m, f.k, f.set, f.OccupancyRate()*100)
}

// RebuildFrom resets the filter's bits and re-adds every term in terms. Used
// on Storage Node startup and on every primary snapshot load: the filter is
// always rebuilt from the inverted index's key set instead of trusting a
// deserialized bit array.
func RebuildFrom(terms []string, n uint, p float64) *Filter {
	f := New(n, p)
	for _, t := range terms {
		f.Add(t)
	}
	return f
}
