package dispatcher

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/codepr/googol/internal/rpcapi"
)

// GetStatistics builds the StatsDigest synchronously: top 10 searches by
// count descending, one line per currently known replica's getBarrelStats
// (or "Inaccessible." if the call fails), and mean response time per replica
// name that has ever served a request, in 100-microsecond units.
func (d *Dispatcher) GetStatistics() string {
	var b strings.Builder
	b.WriteString("== Statistics ==\n\n")

	b.WriteString("-- Top 10 Searches --\n")
	for _, ts := range d.topSearchesSorted(10) {
		fmt.Fprintf(&b, "'%s': %s searches\n", ts.query, humanize.Comma(int64(ts.count)))
	}
	b.WriteString("\n")

	b.WriteString("-- Active Replicas --\n")
	for _, r := range d.replicaSnapshot() {
		reply := &rpcapi.BarrelStatsReply{}
		if err := r.client.Call("Storage.GetBarrelStats", &struct{}{}, reply); err != nil {
			d.removeReplica(r.name)
			fmt.Fprintf(&b, "[%s] Inaccessible.\n", r.name)
			continue
		}
		fmt.Fprintf(&b, "[%s] %s\n", r.name, reply.Digest)
	}
	b.WriteString("\n")

	b.WriteString("-- Mean Response (100-µs units) --\n")
	for _, name := range d.statsReplicaNames() {
		total, count := d.responseStats(name)
		mean := int64(0)
		if count > 0 {
			mean = total / count
		}
		fmt.Fprintf(&b, "[%s] Mean: %d (total: %d, searches: %d)\n", name, mean, total, count)
	}

	return b.String()
}

type topSearch struct {
	query string
	count int
}

func (d *Dispatcher) topSearchesSorted(limit int) []topSearch {
	d.statsMu.Lock()
	defer d.statsMu.Unlock()
	out := make([]topSearch, 0, len(d.topSearches))
	for q, c := range d.topSearches {
		out = append(out, topSearch{q, c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].query < out[j].query
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (d *Dispatcher) statsReplicaNames() []string {
	d.statsMu.Lock()
	defer d.statsMu.Unlock()
	names := make([]string, 0, len(d.respCount))
	for name := range d.respCount {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (d *Dispatcher) responseStats(name string) (total, count int64) {
	d.statsMu.Lock()
	defer d.statsMu.Unlock()
	return d.respTimeTotal[name], d.respCount[name]
}

// markDirty flags that a stats-affecting mutation happened. The push tick
// does not read or clear this flag; it decides by comparing digests.
func (d *Dispatcher) markDirty() {
	d.dirtyMu.Lock()
	d.dirty = true
	d.dirtyMu.Unlock()
}

func (d *Dispatcher) consumeDirty() bool {
	d.dirtyMu.Lock()
	defer d.dirtyMu.Unlock()
	was := d.dirty
	d.dirty = false
	return was
}
