package dispatcher

import (
	"net/rpc"
	"time"

	"github.com/codepr/googol/internal/rpcapi"
)

// SubscribeStats registers callbackAddr as a stats subscriber (idempotent)
// and immediately delivers the current digest to it; a delivery failure
// drops the subscription right away.
func (d *Dispatcher) SubscribeStats(callbackAddr string) {
	d.subsMu.Lock()
	d.subscribers[callbackAddr] = struct{}{}
	d.subsMu.Unlock()
	d.markDirty()

	if !d.deliver(callbackAddr, d.GetStatistics()) {
		d.subsMu.Lock()
		delete(d.subscribers, callbackAddr)
		d.subsMu.Unlock()
	}
}

// UnsubscribeStats removes callbackAddr from the subscriber set (idempotent).
func (d *Dispatcher) UnsubscribeStats(callbackAddr string) {
	d.subsMu.Lock()
	delete(d.subscribers, callbackAddr)
	d.subsMu.Unlock()
}

func (d *Dispatcher) subscriberSnapshot() []string {
	d.subsMu.Lock()
	defer d.subsMu.Unlock()
	out := make([]string, 0, len(d.subscribers))
	for addr := range d.subscribers {
		out = append(out, addr)
	}
	return out
}

// deliver dials callbackAddr's StatsSink RPC server and pushes digest,
// reporting whether delivery succeeded.
func (d *Dispatcher) deliver(callbackAddr, digest string) bool {
	client, err := rpc.Dial("tcp", callbackAddr)
	if err != nil {
		return false
	}
	defer client.Close()
	args := &rpcapi.OnStatisticsUpdateArgs{Digest: digest}
	reply := &rpcapi.OnStatisticsUpdateReply{}
	return client.Call("StatsSink.OnStatisticsUpdate", args, reply) == nil
}

// RunStatsPush blocks, ticking every interval on d's clock. On each tick, if
// there are any subscribers, it rebuilds the digest, compares it byte-wise
// to the digest the previous push tick stored (the immediate delivery made
// by SubscribeStats is not recorded there), and (only if it changed) stores
// it and delivers to every subscriber sequentially, dropping any that fail.
// Returns when stop is closed.
func (d *Dispatcher) RunStatsPush(interval time.Duration, stop <-chan struct{}) {
	if interval <= 0 {
		return
	}
	ticker := d.clock.Ticker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			d.pushTick()
		case <-stop:
			return
		}
	}
}

func (d *Dispatcher) pushTick() {
	subs := d.subscriberSnapshot()
	if len(subs) == 0 {
		return
	}

	digest := d.GetStatistics()

	d.digestMu.Lock()
	changed := digest != d.lastDigest
	if changed {
		d.lastDigest = digest
	}
	d.digestMu.Unlock()

	if !changed {
		return
	}

	for _, addr := range subs {
		if !d.deliver(addr, digest) {
			d.subsMu.Lock()
			delete(d.subscribers, addr)
			d.subsMu.Unlock()
		}
	}
}
