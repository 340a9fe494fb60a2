// Package rpcapi defines the wire types and sentinel errors shared by every
// Googol RPC service (Dispatcher, Storage Node, Name Registry, and the stats
// callback sink a client exposes to receive pushed digests).
//
// Every exported type here is the argument or reply of a net/rpc method, so
// all of them must be gob-encodable: exported fields only, no channels or
// funcs.
package rpcapi

import "errors"

// ErrUnreachable is returned (wrapped) when an RPC call could not reach its
// target, whatever the underlying transport reason.
var ErrUnreachable = errors.New("rpcapi: unreachable")

// ErrNoReplicas is returned by the Dispatcher when it has no reachable
// Storage Node left to route a call to, even after a reconnect pass.
var ErrNoReplicas = errors.New("rpcapi: no replicas available")

// SearchResult is one hit returned by a Storage Node's search and, after
// relevance sorting, by the Dispatcher's search.
type SearchResult struct {
	URL       string
	Title     string
	Snippet   string
	Relevance int
}

// ----- Storage Node service -----

// SearchArgs carries the lower-cased, space-split query terms.
type SearchArgs struct {
	Terms []string
}

// SearchReply carries the (unsorted, for a Storage Node; sorted, once the
// Dispatcher is done) hits.
type SearchReply struct {
	Results []SearchResult
}

// UpdateIndexArgs is the payload a Crawler Worker multicasts to every
// Storage Node after it successfully fetches and parses a page.
type UpdateIndexArgs struct {
	URL           string
	Title         string
	Snippet       string
	Terms         []string
	OutgoingLinks []string
}

// UpdateIndexReply is empty; updateIndex only ever acks or fails with
// Unreachable.
type UpdateIndexReply struct{}

// BacklinksArgs requests the set of pages that link to URL.
type BacklinksArgs struct {
	URL string
}

// BacklinksReply carries the (duplicate-free, unordered) backlink set.
type BacklinksReply struct {
	URLs []string
}

// BarrelStatsReply carries the human-readable getBarrelStats() rendering.
type BarrelStatsReply struct {
	Digest string
}

// IndexDumpReply is the full copy of a Storage Node's inverted index,
// returned only to a peer performing startup sync.
type IndexDumpReply struct {
	Index map[string][]string
}

// BacklinksDumpReply is the full copy of a Storage Node's backlink map.
type BacklinksDumpReply struct {
	Backlinks map[string][]string
}

// PageInfo mirrors the PageRecord data model entry, minus the
// search-time-only relevance scratch field (which is never persisted or
// transmitted).
type PageInfo struct {
	Title   string
	Snippet string
}

// PageInfoDumpReply is the full copy of a Storage Node's page metadata.
type PageInfoDumpReply struct {
	Pages map[string]PageInfo
}

// URLQueueSnapshot is the Dispatcher's {pending, visited} state, shipped to
// every Storage Node on every queue mutation and replayed back on restart.
type URLQueueSnapshot struct {
	Pending []string
	Visited []string
}

// BackupURLQueueArgs carries a fresh snapshot to persist.
type BackupURLQueueArgs struct {
	Snapshot URLQueueSnapshot
}

// BackupURLQueueReply is empty.
type BackupURLQueueReply struct{}

// RestoreURLQueueReply carries the last known snapshot (possibly empty).
type RestoreURLQueueReply struct {
	Snapshot URLQueueSnapshot
}

// ----- Dispatcher service -----

// SubmitURLArgs carries a newly discovered URL.
type SubmitURLArgs struct {
	URL string
}

// SubmitURLReply is empty; duplicate submissions still ack.
type SubmitURLReply struct{}

// DispatcherSearchArgs carries the raw (not yet lower-cased/split) query.
type DispatcherSearchArgs struct {
	Query string
}

// DispatcherSearchReply carries the relevance-sorted hits.
type DispatcherSearchReply struct {
	Results []SearchResult
}

// DispatcherBacklinksArgs mirrors BacklinksArgs at the Dispatcher boundary.
type DispatcherBacklinksArgs struct {
	URL string
}

// DispatcherBacklinksReply mirrors BacklinksReply at the Dispatcher boundary.
type DispatcherBacklinksReply struct {
	URLs []string
}

// StatisticsReply carries the rendered StatsDigest.
type StatisticsReply struct {
	Digest string
}

// NextURLReply carries the next URL to crawl, or Empty == true for "none".
type NextURLReply struct {
	URL   string
	Empty bool
}

// SubscribeStatsArgs carries the network address of a subscriber's own
// CallbackRef RPC server (see StatsSink below).
type SubscribeStatsArgs struct {
	CallbackAddr string
}

// SubscribeStatsReply is empty.
type SubscribeStatsReply struct{}

// UnsubscribeStatsArgs identifies the subscriber to drop.
type UnsubscribeStatsArgs struct {
	CallbackAddr string
}

// UnsubscribeStatsReply is empty.
type UnsubscribeStatsReply struct{}

// ----- Stats callback sink (CallbackRef) -----

// OnStatisticsUpdateArgs carries the freshly rendered digest pushed to a
// subscriber.
type OnStatisticsUpdateArgs struct {
	Digest string
}

// OnStatisticsUpdateReply is empty.
type OnStatisticsUpdateReply struct{}

// ----- Name Registry -----

// BindArgs registers name at addr for the given component kind.
type BindArgs struct {
	Name string
	Addr string
	Kind string
}

// BindReply is empty.
type BindReply struct{}

// LookupArgs requests the current address bound to Name.
type LookupArgs struct {
	Name string
}

// LookupReply carries the bound address, or Found == false.
type LookupReply struct {
	Addr  string
	Found bool
}

// UnbindArgs removes a binding.
type UnbindArgs struct {
	Name string
}

// UnbindReply is empty.
type UnbindReply struct{}

// Component kinds recorded in the Name Registry, for observability only;
// lookups are by name regardless of kind.
const (
	KindDispatcher = "dispatcher"
	KindStorage    = "storage"
	KindCrawler    = "crawler"
)
