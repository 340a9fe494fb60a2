package dispatcher

import (
	"net/rpc"
	"sync/atomic"

	"github.com/codepr/googol/internal/rpcapi"
)

// replica is one entry in the Dispatcher's ordered, homogeneous collection
// of Storage Node client stubs.
type replica struct {
	name   string
	addr   string
	client *rpc.Client
}

func dialReplica(name, addr string) (*replica, error) {
	client, err := rpc.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &replica{name: name, addr: addr, client: client}, nil
}

// replicaSnapshot returns a stable copy of the current replica list so RPC
// goroutines iterating it never observe a torn append/remove.
func (d *Dispatcher) replicaSnapshot() []*replica {
	d.replicasMu.Lock()
	defer d.replicasMu.Unlock()
	out := make([]*replica, len(d.replicas))
	copy(out, d.replicas)
	return out
}

func (d *Dispatcher) removeReplica(name string) {
	d.replicasMu.Lock()
	defer d.replicasMu.Unlock()
	for i, r := range d.replicas {
		if r.name == name {
			r.client.Close()
			d.replicas = append(d.replicas[:i], d.replicas[i+1:]...)
			return
		}
	}
}

func (d *Dispatcher) addReplica(r *replica) {
	d.replicasMu.Lock()
	defer d.replicasMu.Unlock()
	for _, existing := range d.replicas {
		if existing.name == r.name {
			return
		}
	}
	d.replicas = append(d.replicas, r)
}

// ReconnectReplicas re-resolves every configured barrel name through the
// Name Registry and adds back any that are reachable but currently absent
// from the replica list. routeWithFailover calls it when the replica list is
// already empty at the start of a search/backlinks call; a call whose every
// attempt fails mid-loop returns ErrNoReplicas without a further reconnect
// pass. The dispatcher command also calls it once at startup.
func (d *Dispatcher) ReconnectReplicas() {
	for _, name := range d.cfg.BarrelNames {
		if d.hasReplica(name) {
			continue
		}
		addr, ok, err := d.reg.Lookup(name)
		if err != nil || !ok {
			continue
		}
		r, err := dialReplica(name, addr)
		if err != nil {
			continue
		}
		d.addReplica(r)
	}
}

func (d *Dispatcher) hasReplica(name string) bool {
	d.replicasMu.Lock()
	defer d.replicasMu.Unlock()
	for _, r := range d.replicas {
		if r.name == name {
			return true
		}
	}
	return false
}

// pickNext advances the round-robin cursor atomically and returns an index
// into a snapshot of length n. The absolute value of the modulus tolerates
// counter overflow/wraparound.
func (d *Dispatcher) pickNext(n int) int {
	v := atomic.AddUint64(&d.nextIdx, 1)
	idx := int(v % uint64(n))
	if idx < 0 {
		idx = -idx
	}
	return idx
}

// routeSearch implements round-robin + failover for a single conjunctive
// search call. The attempt count is computed once at loop entry (the design
// note's resolution of the ambiguous original behavior): up to n distinct
// attempts against the replica list as it stood when the call began,
// tolerating staleness if the list shrinks mid-loop.
func (d *Dispatcher) routeSearch(terms []string) ([]rpcapi.SearchResult, string, error) {
	return routeWithFailover(d, func(r *replica) (*rpcapi.SearchReply, error) {
		args := &rpcapi.SearchArgs{Terms: terms}
		reply := &rpcapi.SearchReply{}
		err := r.client.Call("Storage.Search", args, reply)
		return reply, err
	}, func(reply *rpcapi.SearchReply) []rpcapi.SearchResult { return reply.Results })
}

// routeBacklinks implements round-robin + failover for getBacklinks.
func (d *Dispatcher) routeBacklinks(url string) ([]string, string, error) {
	return routeWithFailover(d, func(r *replica) (*rpcapi.BacklinksReply, error) {
		args := &rpcapi.BacklinksArgs{URL: url}
		reply := &rpcapi.BacklinksReply{}
		err := r.client.Call("Storage.GetBacklinks", args, reply)
		return reply, err
	}, func(reply *rpcapi.BacklinksReply) []string { return reply.URLs })
}

// routeWithFailover is the shared round-robin + failover driver: call is
// invoked against successive replicas (by round-robin index) until one
// succeeds or the bounded attempt budget is exhausted; a replica that fails
// is dropped from the list. extract projects the RPC reply into the result
// type the caller wants. Returns the replica name that served the request on
// success.
func routeWithFailover[Reply any, Result any](d *Dispatcher, call func(*replica) (*Reply, error), extract func(*Reply) Result) (Result, string, error) {
	var zero Result
	snapshot := d.replicaSnapshot()
	if len(snapshot) == 0 {
		d.ReconnectReplicas()
		snapshot = d.replicaSnapshot()
		if len(snapshot) == 0 {
			return zero, "", rpcapi.ErrNoReplicas
		}
	}

	attempts := len(snapshot)
	for i := 0; i < attempts; i++ {
		idx := d.pickNext(len(snapshot))
		r := snapshot[idx]
		reply, err := call(r)
		if err == nil {
			return extract(reply), r.name, nil
		}
		d.removeReplica(r.name)
	}

	return zero, "", rpcapi.ErrNoReplicas
}
