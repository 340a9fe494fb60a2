package storagenode

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/codepr/googol/internal/bloom"
	"github.com/codepr/googol/internal/rpcapi"
)

const (
	primarySnapshotFile = "barrel_state_primary.gob"
	queueSnapshotFile   = "barrel_urlqueue_backup.gob"
)

// primarySnapshot is the record persisted by the primary Storage Node. The
// BloomBits field is always written empty: a Bloom filter is never trusted
// from disk, always rebuilt from the index key set on load.
type primarySnapshot struct {
	Index     map[string][]string
	Backlinks map[string][]string
	Pages     map[string]rpcapi.PageInfo
	BloomBits []byte
}

// BarrelStats renders the "Index: <W> words, <U> URLs. BloomFilter[...]"
// digest line.
func (n *Node) BarrelStats() string {
	n.filterMu.RLock()
	filterStr := n.filter.String()
	n.filterMu.RUnlock()
	return fmt.Sprintf("Index: %s words, %s URLs. %s",
		humanize.Comma(int64(n.wordCount())), humanize.Comma(int64(n.urlCount())), filterStr)
}

// DumpIndex returns a full copy of the inverted index, used only during
// peer sync.
func (n *Node) DumpIndex() map[string][]string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make(map[string][]string, len(n.index))
	for term, urls := range n.index {
		out[term] = setToSlice(urls)
	}
	return out
}

// DumpBacklinks returns a full copy of the backlink map.
func (n *Node) DumpBacklinks() map[string][]string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make(map[string][]string, len(n.backlinks))
	for url, srcs := range n.backlinks {
		out[url] = setToSlice(srcs)
	}
	return out
}

// DumpPages returns a full copy of the page metadata map.
func (n *Node) DumpPages() map[string]rpcapi.PageInfo {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make(map[string]rpcapi.PageInfo, len(n.pages))
	for url, p := range n.pages {
		out[url] = p
	}
	return out
}

// PutAllIndex bulk-merges term -> URLs entries into the local index, used
// both by peer sync and disk-snapshot restore.
func (n *Node) PutAllIndex(dump map[string][]string) {
	n.mu.Lock()
	for term, urls := range dump {
		set := getOrCreateSet(n.index, term)
		for _, u := range urls {
			set[u] = struct{}{}
		}
	}
	n.mu.Unlock()
}

// PutAllBacklinks bulk-merges target -> source entries into the local
// backlink map.
func (n *Node) PutAllBacklinks(dump map[string][]string) {
	n.mu.Lock()
	for url, srcs := range dump {
		set := getOrCreateSet(n.backlinks, url)
		for _, s := range srcs {
			set[s] = struct{}{}
		}
	}
	n.mu.Unlock()
}

// PutAllPages bulk-merges page metadata, keeping whichever entry the caller
// passes (used for peer sync and snapshot restore, both of which occur
// before the node starts serving, so overwrite-on-merge is fine).
func (n *Node) PutAllPages(dump map[string]rpcapi.PageInfo) {
	n.mu.Lock()
	for url, p := range dump {
		n.pages[url] = p
	}
	n.mu.Unlock()
}

// RebuildBloomFromIndex throws away the current Bloom filter and rebuilds it
// from every term key currently in the index. Called after any bulk merge
// (peer sync or disk restore), per the design note that a Bloom filter is
// never restored from serialized bits.
func (n *Node) RebuildBloomFromIndex() {
	n.mu.RLock()
	terms := make([]string, 0, len(n.index))
	for term := range n.index {
		terms = append(terms, term)
	}
	n.mu.RUnlock()

	rebuilt := bloom.RebuildFrom(terms, n.cfg.BloomExpected, n.cfg.BloomFalsePos)
	n.filterMu.Lock()
	n.filter = rebuilt
	n.filterMu.Unlock()
}

func (n *Node) stateDir() string {
	if n.cfg.StateDir == "" {
		return "."
	}
	return n.cfg.StateDir
}

// SnapshotToDisk serializes {index, backlinks, pages} to the primary
// snapshot file. Only meaningful for the designated primary, but harmless
// (and unused) if called on a replica. I/O failures are logged and
// swallowed: a failed snapshot leaves the previous file on disk untouched,
// and in-memory state is never affected by a failed write.
func (n *Node) SnapshotToDisk() {
	snap := primarySnapshot{
		Index:     n.DumpIndex(),
		Backlinks: n.DumpBacklinks(),
		Pages:     n.DumpPages(),
	}
	path := filepath.Join(n.stateDir(), primarySnapshotFile)
	size, err := writeGob(path, snap)
	if err != nil {
		n.logger.Warn("primary snapshot write failed", "err", err)
		return
	}
	n.logger.Info("primary snapshot written", "path", path, "size", humanize.Bytes(uint64(size)))
}

// LoadFromDisk deserializes the primary snapshot file, if present, merging
// its contents into the local state and rebuilding the Bloom filter from the
// resulting index. Returns false if no snapshot file existed or it could not
// be read.
func (n *Node) LoadFromDisk() bool {
	path := filepath.Join(n.stateDir(), primarySnapshotFile)
	var snap primarySnapshot
	if !readGob(path, &snap) {
		return false
	}
	n.PutAllIndex(snap.Index)
	n.PutAllBacklinks(snap.Backlinks)
	n.PutAllPages(snap.Pages)
	n.RebuildBloomFromIndex()
	return true
}

// BackupURLQueue overwrites the local replica of the Dispatcher's queue
// snapshot and persists it to disk. Called by every Storage Node, not only
// the primary.
func (n *Node) BackupURLQueue(snapshot rpcapi.URLQueueSnapshot) {
	n.queueMu.Lock()
	n.queue = snapshot
	n.queueMu.Unlock()

	path := filepath.Join(n.stateDir(), queueSnapshotFile)
	if _, err := writeGob(path, snapshot); err != nil {
		n.logger.Warn("queue snapshot write failed", "err", err)
	}
}

// RestoreURLQueue returns the last known queue snapshot, reloading from disk
// first so a cold-started node can still answer the Dispatcher even before
// any BackupURLQueue call this process lifetime.
func (n *Node) RestoreURLQueue() rpcapi.URLQueueSnapshot {
	n.queueMu.Lock()
	defer n.queueMu.Unlock()
	if len(n.queue.Pending) == 0 && len(n.queue.Visited) == 0 {
		path := filepath.Join(n.stateDir(), queueSnapshotFile)
		var snap rpcapi.URLQueueSnapshot
		if readGob(path, &snap) {
			n.queue = snap
		}
	}
	return n.queue
}

func writeGob(path string, v any) (int64, error) {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return 0, err
	}
	if err := gob.NewEncoder(f).Encode(v); err != nil {
		f.Close()
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, err
	}
	if err := os.Rename(tmp, path); err != nil {
		return 0, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, nil
	}
	return info.Size(), nil
}

func readGob(path string, v any) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	return gob.NewDecoder(f).Decode(v) == nil
}
