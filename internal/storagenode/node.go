// Package storagenode implements a Storage Node (the "Barrel" in the
// original system): a replica holding an inverted index, a backlink map,
// per-URL page metadata, and a Bloom filter accelerating conjunctive search.
// Storage Nodes sync from peers (or a disk snapshot) on startup and, if
// configured as the primary, periodically snapshot their state to disk.
package storagenode

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"

	"github.com/codepr/googol/internal/bloom"
	"github.com/codepr/googol/internal/rpcapi"
)

// State is one of the lifecycle states a Storage Node moves through:
// Starting -> Syncing -> Ready, with Ready <-> Snapshotting for the primary.
type State int32

const (
	StateStarting State = iota
	StateSyncing
	StateReady
	StateSnapshotting
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "Starting"
	case StateSyncing:
		return "Syncing"
	case StateReady:
		return "Ready"
	case StateSnapshotting:
		return "Snapshotting"
	default:
		return "Unknown"
	}
}

// Config controls the fixed parameters of a Node: its own name, whether it
// is the designated primary (index 0 among configured barrels), the
// Bloom-filter sizing, and the directory its snapshot files live in.
type Config struct {
	Name          string
	IsPrimary     bool
	BloomExpected uint
	BloomFalsePos float64
	StateDir      string
}

// Node is the in-memory state of a single Storage Node and the receiver for
// every Storage Node operation. It is safe for concurrent use by multiple
// RPC goroutines plus the primary's autosave ticker.
type Node struct {
	cfg Config

	mu        sync.RWMutex
	index     map[string]map[string]struct{} // term -> set of URL
	backlinks map[string]map[string]struct{} // target URL -> set of source URL
	pages     map[string]rpcapi.PageInfo

	filterMu sync.RWMutex
	filter   *bloom.Filter

	queueMu sync.Mutex
	queue   rpcapi.URLQueueSnapshot

	state  atomic.Int32
	clock  clock.Clock
	logger *slog.Logger
}

// New creates an empty Node in state Starting.
func New(cfg Config, clk clock.Clock, logger *slog.Logger) *Node {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	n := &Node{
		cfg:       cfg,
		index:     make(map[string]map[string]struct{}),
		backlinks: make(map[string]map[string]struct{}),
		pages:     make(map[string]rpcapi.PageInfo),
		filter:    bloom.New(cfg.BloomExpected, cfg.BloomFalsePos),
		clock:     clk,
		logger:    logger,
	}
	n.state.Store(int32(StateStarting))
	return n
}

// State returns the node's current lifecycle state.
func (n *Node) State() State {
	return State(n.state.Load())
}

func (n *Node) setState(s State) {
	n.state.Store(int32(s))
	n.logger.Info("state transition", "state", s.String())
}

// getOrCreateSet returns m[key], creating an empty set first if absent. The
// caller must already hold the appropriate lock.
func getOrCreateSet(m map[string]map[string]struct{}, key string) map[string]struct{} {
	s, ok := m[key]
	if !ok {
		s = make(map[string]struct{})
		m[key] = s
	}
	return s
}

func setToSlice(s map[string]struct{}) []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	return out
}

func sliceToSet(xs []string) map[string]struct{} {
	s := make(map[string]struct{}, len(xs))
	for _, x := range xs {
		s[x] = struct{}{}
	}
	return s
}

// wordCount returns len(index); urlCount returns the number of distinct URLs
// ever seen in pages. Both are used by BarrelStats.
func (n *Node) wordCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.index)
}

func (n *Node) urlCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.pages)
}
