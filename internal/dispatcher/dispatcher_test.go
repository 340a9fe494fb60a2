package dispatcher

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/benbjohnson/clock"

	"github.com/codepr/googol/internal/registry"
	"github.com/codepr/googol/internal/rpcapi"
	"github.com/codepr/googol/internal/rpcdial"
	"github.com/codepr/googol/internal/storagenode"
)

func newTestDispatcher(t *testing.T, barrelNames []string, registryAddr string) *Dispatcher {
	t.Helper()
	cfg := Config{
		RegistryAddr: registryAddr,
		SelfName:     "gateway",
		BarrelNames:  barrelNames,
		LogPath:      filepath.Join(t.TempDir(), "indexed_urls.log"),
	}
	return New(cfg, clock.NewMock(), nil)
}

func startRegistry(t *testing.T) (string, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	reg := registry.New(nil)
	addr, err := rpcdial.Serve(ctx, "127.0.0.1:0", reg, nil)
	if err != nil {
		t.Fatal(err)
	}
	return addr, cancel
}

func startStorageNode(t *testing.T, ctx context.Context, registryAddr, name string) *storagenode.Node {
	t.Helper()
	node := storagenode.New(storagenode.Config{
		Name:          name,
		BloomExpected: 1000,
		BloomFalsePos: 0.01,
		StateDir:      t.TempDir(),
	}, clock.NewMock(), nil)

	addr, err := rpcdial.ServeNamed(ctx, "127.0.0.1:0", "Storage", storagenode.NewService(node), nil)
	if err != nil {
		t.Fatal(err)
	}
	client := rpcdial.NewRegistry(registryAddr)
	if err := client.Bind(name, addr, rpcapi.KindStorage); err != nil {
		t.Fatal(err)
	}
	return node
}

func TestSubmitURLDedupAndNextURLToCrawl(t *testing.T) {
	regAddr, cancel := startRegistry(t)
	defer cancel()
	d := newTestDispatcher(t, nil, regAddr)

	d.SubmitURL("http://a")
	d.SubmitURL("http://a")

	url, ok := d.NextURLToCrawl()
	if !ok || url != "http://a" {
		t.Fatalf("expected http://a once, got %q ok=%v", url, ok)
	}
	if _, ok := d.NextURLToCrawl(); ok {
		t.Fatal("expected no more URLs to crawl")
	}
}

func TestSearchFailoverSwitchesReplicaOnFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	regAddr, cancelReg := startRegistry(t)
	defer cancelReg()

	node0 := startStorageNode(t, ctx, regAddr, "barrel0")
	node0.UpdateIndex("http://a", "A", "hello", []string{"hello"}, nil)
	node1 := startStorageNode(t, ctx, regAddr, "barrel1")
	node1.UpdateIndex("http://a", "A", "hello", []string{"hello"}, nil)

	d := newTestDispatcher(t, []string{"barrel0", "barrel1"}, regAddr)
	d.ReconnectReplicas()

	// Make barrel0 unreachable from the Dispatcher: every call through its
	// closed client stub now fails.
	for _, r := range d.replicaSnapshot() {
		if r.name == "barrel0" {
			r.client.Close()
		}
	}

	// Two consecutive searches visit both round-robin slots, so one of them
	// hits barrel0, fails over to barrel1 and drops barrel0.
	for i := 0; i < 2; i++ {
		results, err := d.Search("hello")
		if err != nil {
			t.Fatal(err)
		}
		if len(results) != 1 || results[0].URL != "http://a" {
			t.Fatalf("unexpected results: %v", results)
		}
	}
	if d.hasReplica("barrel0") {
		t.Fatal("expected the failed replica barrel0 to be dropped")
	}
}

func TestSearchNoReplicasErrors(t *testing.T) {
	regAddr, cancel := startRegistry(t)
	defer cancel()
	d := newTestDispatcher(t, []string{"barrel0"}, regAddr)

	if _, err := d.Search("anything"); err == nil {
		t.Fatal("expected NoReplicas error with zero replicas registered")
	}
}

func TestSearchResultsSortedByRelevanceDescending(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	regAddr, cancelReg := startRegistry(t)
	defer cancelReg()

	node0 := startStorageNode(t, ctx, regAddr, "barrel0")
	node0.UpdateIndex("http://a", "A", "hello world", []string{"hello", "world"}, []string{"http://b"})
	node0.UpdateIndex("http://c", "C", "hello planet", []string{"hello", "planet"}, []string{"http://a"})

	d := newTestDispatcher(t, []string{"barrel0"}, regAddr)
	d.ReconnectReplicas()

	results, err := d.Search("hello")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i-1].Relevance < results[i].Relevance {
			t.Fatalf("results not sorted by relevance descending: %v", results)
		}
	}
}

func TestWhitespaceOnlyQueryReturnsEmpty(t *testing.T) {
	regAddr, cancel := startRegistry(t)
	defer cancel()
	d := newTestDispatcher(t, nil, regAddr)

	results, err := d.Search("   ")
	if err != nil {
		t.Fatalf("expected no error for whitespace-only query, got %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty results, got %v", results)
	}
}

func TestGetStatisticsReturnsDigestWithInaccessibleReplicas(t *testing.T) {
	regAddr, cancel := startRegistry(t)
	defer cancel()
	d := newTestDispatcher(t, []string{"barrel0"}, regAddr)

	digest := d.GetStatistics()
	if digest == "" {
		t.Fatal("expected non-empty digest even with zero replicas")
	}
}

func TestSubscribeStatsDeliversImmediately(t *testing.T) {
	regAddr, cancel := startRegistry(t)
	defer cancel()
	d := newTestDispatcher(t, nil, regAddr)

	received := make(chan string, 1)
	sinkAddr := startStatsSink(t, received)

	d.SubscribeStats(sinkAddr)
	select {
	case digest := <-received:
		if digest == "" {
			t.Fatal("expected non-empty digest delivered on subscribe")
		}
	default:
		t.Fatal("expected immediate delivery on subscribe")
	}
}

func TestPushTickSkipsWhenNotDirty(t *testing.T) {
	regAddr, cancel := startRegistry(t)
	defer cancel()
	d := newTestDispatcher(t, nil, regAddr)

	received := make(chan string, 2)
	sinkAddr := startStatsSink(t, received)
	d.SubscribeStats(sinkAddr)
	<-received // drain the immediate delivery from SubscribeStats

	d.pushTick()
	<-received // the first tick has no previous pushed digest, so it pushes

	d.pushTick()
	select {
	case <-received:
		t.Fatal("expected no push when digest has not changed")
	default:
	}
}
