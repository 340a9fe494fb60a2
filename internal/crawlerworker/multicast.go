package crawlerworker

import (
	"net/rpc"
	"time"

	"github.com/codepr/googol/internal/fetch"
	"github.com/codepr/googol/internal/rpcapi"
)

// pendingUpdate is a Storage Node update a worker could not deliver,
// queued FIFO for retry on a later loop iteration.
type pendingUpdate struct {
	args rpcapi.UpdateIndexArgs
	ts   time.Time
}

func updateArgsFromPage(page *fetch.Page) *rpcapi.UpdateIndexArgs {
	return &rpcapi.UpdateIndexArgs{
		URL:           page.URL,
		Title:         page.Title,
		Snippet:       page.Snippet,
		Terms:         page.Terms,
		OutgoingLinks: page.Links,
	}
}

// multicastUpdate delivers page's update to every Storage Node target. Each
// delivery is attempted up to MulticastRetries times with a monotonic backoff
// (base 1s times the attempt number); a target that still fails after that
// is queued for a later drain pass instead of blocking the crawl loop.
func (w *Worker) multicastUpdate(page *fetch.Page) {
	args := updateArgsFromPage(page)
	for _, target := range w.targets {
		if w.deliverWithRetry(target, args) {
			continue
		}
		target.queue = append(target.queue, pendingUpdate{args: *args, ts: w.clock.Now()})
		if target.client != nil {
			target.client.Close()
			target.client = nil
		}
		w.logger.Info("update queued for retry", "node", target.name, "url", page.URL)
	}
}

func (w *Worker) deliverWithRetry(target *storageTarget, args *rpcapi.UpdateIndexArgs) bool {
	for attempt := 1; attempt <= w.cfg.MulticastRetries; attempt++ {
		if w.deliverOnce(target, args) {
			return true
		}
		if attempt < w.cfg.MulticastRetries {
			w.clock.Sleep(time.Duration(attempt) * time.Second)
		}
	}
	return false
}

func (w *Worker) deliverOnce(target *storageTarget, args *rpcapi.UpdateIndexArgs) bool {
	if target.client == nil {
		return false
	}
	reply := &rpcapi.UpdateIndexReply{}
	return target.client.Call("Storage.UpdateIndex", args, reply) == nil
}

// drainPending re-resolves every target with a non-empty retry queue and
// drains it in FIFO order. Draining for a given target stops at the first
// delivery failure in the pass (retried again on the next drainPending
// call); a target that cannot be re-resolved at all is skipped this pass.
func (w *Worker) drainPending() {
	for _, target := range w.targets {
		if len(target.queue) == 0 {
			continue
		}
		if !w.ensureConnected(target) {
			continue
		}

		drained := 0
		for _, pu := range target.queue {
			if !w.deliverOnce(target, &pu.args) {
				break
			}
			drained++
		}
		target.queue = target.queue[drained:]
	}
}

func (w *Worker) ensureConnected(target *storageTarget) bool {
	if target.client != nil {
		return true
	}
	addr, ok, err := w.reg.Lookup(target.name)
	if err != nil || !ok {
		return false
	}
	client, err := rpc.Dial("tcp", addr)
	if err != nil {
		return false
	}
	target.addr = addr
	target.client = client
	return true
}
