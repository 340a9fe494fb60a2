package dispatcher

import (
	"sort"
	"strings"
	"time"

	"github.com/codepr/googol/internal/rpcapi"
)

// Search lower-cases and whitespace-splits query, routes the conjunctive
// term search to a Storage Node via round-robin + failover, records the
// query in the top-searches counter and the serving replica's response-time
// accumulator, marks stats dirty, and returns the hits sorted by relevance
// descending.
func (d *Dispatcher) Search(query string) ([]rpcapi.SearchResult, error) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil, nil
	}

	d.statsMu.Lock()
	d.topSearches[strings.ToLower(query)]++
	d.statsMu.Unlock()
	d.markDirty()

	start := d.clock.Now()
	results, replicaName, err := d.routeSearch(terms)
	if err != nil {
		return nil, err
	}
	elapsed := d.clock.Now().Sub(start)
	d.recordResponseTime(replicaName, elapsed)

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Relevance > results[j].Relevance
	})
	return results, nil
}

// GetBacklinks routes a backlink lookup via round-robin + failover.
func (d *Dispatcher) GetBacklinks(url string) ([]string, error) {
	urls, _, err := d.routeBacklinks(url)
	if err != nil {
		return nil, err
	}
	return urls, nil
}

// recordResponseTime adds elapsed (converted to 100-microsecond units, the
// "deci-second" wording in the source comment this system is modeled on) to
// the named replica's running total and increments its sample count.
func (d *Dispatcher) recordResponseTime(replicaName string, elapsed time.Duration) {
	if replicaName == "" {
		return
	}
	units := elapsed.Nanoseconds() / 100000
	d.statsMu.Lock()
	d.respTimeTotal[replicaName] += units
	d.respCount[replicaName]++
	d.statsMu.Unlock()
}
