package dispatcher

import (
	"time"

	"github.com/codepr/googol/internal/rpcapi"
	"github.com/codepr/googol/internal/rpcdial"
)

const (
	recoverAttempts = 5
	recoverDelay    = 2 * time.Second
)

// Recover queries restoreURLQueue on every configured replica name (with
// bounded retry/backoff per name: up to recoverAttempts registry lookups,
// then up to recoverAttempts dials, recoverDelay apart), and seeds pending/visited from whichever collected snapshot
// maximizes len(pending)+len(visited). If no snapshot could be retrieved at
// all, the Dispatcher starts empty. Call this before announcing the
// Dispatcher on the RPC bus.
func (d *Dispatcher) Recover() {
	var best rpcapi.URLQueueSnapshot
	bestSize := -1

	for _, name := range d.cfg.BarrelNames {
		snap, ok := d.restoreFromReplica(name)
		if !ok {
			continue
		}
		size := len(snap.Pending) + len(snap.Visited)
		if size > bestSize {
			bestSize = size
			best = snap
		}
	}

	if bestSize < 0 {
		d.logger.Info("no replica snapshot retrievable, starting with empty queue")
		return
	}

	d.queueMu.Lock()
	d.pending = append([]string(nil), best.Pending...)
	d.visited = make(map[string]struct{}, len(best.Visited))
	for _, u := range best.Visited {
		d.visited[u] = struct{}{}
	}
	d.queueMu.Unlock()

	d.logger.Info("recovered queue from replica snapshot", "pending", len(best.Pending), "visited", len(best.Visited))
}

func (d *Dispatcher) restoreFromReplica(name string) (rpcapi.URLQueueSnapshot, bool) {
	var addr string
	var found bool
	for attempt := 0; attempt < recoverAttempts; attempt++ {
		a, ok, err := d.reg.Lookup(name)
		if err == nil && ok {
			addr, found = a, true
			break
		}
		if attempt < recoverAttempts-1 {
			time.Sleep(recoverDelay)
		}
	}
	if !found {
		return rpcapi.URLQueueSnapshot{}, false
	}

	client, err := rpcdial.DialRetry(addr, recoverAttempts, recoverDelay)
	if err != nil {
		return rpcapi.URLQueueSnapshot{}, false
	}
	defer client.Close()

	reply := &rpcapi.RestoreURLQueueReply{}
	if err := client.Call("Storage.RestoreURLQueue", &struct{}{}, reply); err != nil {
		return rpcapi.URLQueueSnapshot{}, false
	}
	return reply.Snapshot, true
}

// fanOutSnapshot best-effort delivers the current {pending, visited}
// snapshot to every known replica. A replica that fails the delivery is
// dropped (it is re-added on the next reconnect pass). Never blocks its
// caller: always invoked via `go d.fanOutSnapshot()`.
func (d *Dispatcher) fanOutSnapshot() {
	pending, visited := d.queueSnapshot()
	snap := rpcapi.URLQueueSnapshot{Pending: pending, Visited: visited}
	args := &rpcapi.BackupURLQueueArgs{Snapshot: snap}

	for _, r := range d.replicaSnapshot() {
		reply := &rpcapi.BackupURLQueueReply{}
		if err := r.client.Call("Storage.BackupURLQueue", args, reply); err != nil {
			d.removeReplica(r.name)
		}
	}
}
