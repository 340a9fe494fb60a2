package storagenode

import (
	"net/rpc"
	"time"

	"github.com/codepr/googol/internal/rpcapi"
	"github.com/codepr/googol/internal/rpcdial"
)

// Recover runs the startup state-recovery order, stopping at the first step
// that succeeds:
//
//  1. Peer sync via RPC: for each configured peer name other than selfName,
//     resolved through the Name Registry at registryAddr, fetch its three
//     state dumps and bulk-merge them in, then rebuild the Bloom filter.
//  2. Disk fallback: deserialize the primary's snapshot file.
//  3. Empty start: begin with empty state.
func (n *Node) Recover(registryAddr, selfName string, peerNames []string) {
	n.setState(StateSyncing)
	defer n.setState(StateReady)

	reg := rpcdial.NewRegistry(registryAddr)
	for _, peer := range peerNames {
		if peer == selfName {
			continue
		}
		if n.syncFromPeer(reg, peer) {
			n.logger.Info("synced state from peer", "peer", peer)
			return
		}
	}

	if n.LoadFromDisk() {
		n.logger.Info("synced state from disk snapshot")
		return
	}

	n.logger.Info("starting with empty state")
}

func (n *Node) syncFromPeer(reg *rpcdial.Registry, peer string) bool {
	addr, ok, err := reg.Lookup(peer)
	if err != nil || !ok {
		return false
	}
	client, err := rpc.Dial("tcp", addr)
	if err != nil {
		return false
	}
	defer client.Close()

	var indexReply rpcapi.IndexDumpReply
	if err := client.Call("Storage.GetInvertedIndex", &struct{}{}, &indexReply); err != nil {
		return false
	}
	var backlinksReply rpcapi.BacklinksDumpReply
	if err := client.Call("Storage.GetBacklinksMap", &struct{}{}, &backlinksReply); err != nil {
		return false
	}
	var pagesReply rpcapi.PageInfoDumpReply
	if err := client.Call("Storage.GetPageInfoMap", &struct{}{}, &pagesReply); err != nil {
		return false
	}

	n.PutAllIndex(indexReply.Index)
	n.PutAllBacklinks(backlinksReply.Backlinks)
	n.PutAllPages(pagesReply.Pages)
	n.RebuildBloomFromIndex()
	return true
}

// RunAutosave blocks, ticking every interval on n's clock, snapshotting to
// disk on each tick, until stop is closed. Only meaningful for the
// designated primary; the caller is responsible for only invoking this for
// a primary node.
func (n *Node) RunAutosave(interval time.Duration, stop <-chan struct{}) {
	if interval <= 0 {
		return
	}
	ticker := n.clock.Ticker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			n.setState(StateSnapshotting)
			n.SnapshotToDisk()
			n.setState(StateReady)
		case <-stop:
			return
		}
	}
}
