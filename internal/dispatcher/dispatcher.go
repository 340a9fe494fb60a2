// Package dispatcher implements the Dispatcher (the "Gateway" in the
// original system): the single central coordinator owning the URL queue and
// visited set, handing out crawl work, routing search and backlink lookups
// to Storage Nodes with round-robin failover, aggregating statistics, and
// fanning out push updates to subscribers.
package dispatcher

import (
	"bufio"
	"log/slog"
	"os"
	"sync"

	"github.com/benbjohnson/clock"

	"github.com/codepr/googol/internal/rpcdial"
)

// Config controls the fixed parameters of a Dispatcher.
type Config struct {
	RegistryAddr string
	SelfName     string
	BarrelNames  []string // ordered; resolved by name for queue recovery and replica reconnect
	LogPath      string   // indexed_urls.log
}

// Dispatcher is the receiver for every Dispatcher operation. It is safe for
// concurrent use by many RPC goroutines plus its own background
// snapshot-fanout tasks and stats-push ticker.
type Dispatcher struct {
	cfg    Config
	logger *slog.Logger
	clock  clock.Clock
	reg    *rpcdial.Registry

	queueMu sync.Mutex
	pending []string
	visited map[string]struct{}

	replicasMu sync.Mutex
	replicas   []*replica
	nextIdx    uint64

	statsMu       sync.Mutex
	topSearches   map[string]int
	respTimeTotal map[string]int64
	respCount     map[string]int64

	subsMu      sync.Mutex
	subscribers map[string]struct{}

	dirtyMu sync.Mutex
	dirty   bool

	digestMu   sync.Mutex
	lastDigest string

	logMu  sync.Mutex
	logOut *os.File
}

// New creates a Dispatcher with empty queue/stats state. Call Recover
// afterwards to seed pending/visited from replica snapshots.
func New(cfg Config, clk clock.Clock, logger *slog.Logger) *Dispatcher {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		cfg:           cfg,
		logger:        logger,
		clock:         clk,
		reg:           rpcdial.NewRegistry(cfg.RegistryAddr),
		visited:       make(map[string]struct{}),
		topSearches:   make(map[string]int),
		respTimeTotal: make(map[string]int64),
		respCount:     make(map[string]int64),
		subscribers:   make(map[string]struct{}),
	}
	return d
}

// SubmitURL records url as visited (first submission wins, duplicates are
// silently dropped), appends it to the pending queue and the indexed-URL
// log, and triggers a best-effort async snapshot fan-out to every replica.
func (d *Dispatcher) SubmitURL(url string) {
	d.queueMu.Lock()
	_, already := d.visited[url]
	if !already {
		d.visited[url] = struct{}{}
		d.pending = append(d.pending, url)
	}
	d.queueMu.Unlock()

	if already {
		return
	}

	d.appendLog(url)
	d.markDirty()
	go d.fanOutSnapshot()
}

// NextURLToCrawl pops the head of the pending queue, or reports none. A
// popped URL triggers the same async snapshot fan-out as SubmitURL.
func (d *Dispatcher) NextURLToCrawl() (string, bool) {
	d.queueMu.Lock()
	if len(d.pending) == 0 {
		d.queueMu.Unlock()
		return "", false
	}
	url := d.pending[0]
	d.pending = d.pending[1:]
	d.queueMu.Unlock()

	d.markDirty()
	go d.fanOutSnapshot()
	return url, true
}

func (d *Dispatcher) appendLog(url string) {
	d.logMu.Lock()
	defer d.logMu.Unlock()
	if d.logOut == nil {
		if d.cfg.LogPath == "" {
			return
		}
		f, err := os.OpenFile(d.cfg.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			d.logger.Warn("indexed-url log open failed", "err", err)
			return
		}
		d.logOut = f
	}
	w := bufio.NewWriter(d.logOut)
	_, _ = w.WriteString(url + "\n")
	_ = w.Flush()
}

// queueSnapshot is called with no lock held; it takes its own
// consistent copy of pending+visited.
func (d *Dispatcher) queueSnapshot() (pending []string, visited []string) {
	d.queueMu.Lock()
	defer d.queueMu.Unlock()
	pending = append([]string(nil), d.pending...)
	visited = make([]string, 0, len(d.visited))
	for u := range d.visited {
		visited = append(visited, u)
	}
	return pending, visited
}
