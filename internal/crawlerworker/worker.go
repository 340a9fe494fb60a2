// Package crawlerworker implements the Crawler Worker (the "Downloader"):
// pull-based URL consumption from the Dispatcher, page fetch/parse via a
// fetch.Fetcher, and reliable multicast of the resulting index update to
// every known Storage Node.
package crawlerworker

import (
	"context"
	"fmt"
	"log/slog"
	"net/rpc"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/codepr/googol/internal/fetch"
	"github.com/codepr/googol/internal/rpcapi"
	"github.com/codepr/googol/internal/rpcdial"
)

// Config controls the fixed parameters of a Worker.
type Config struct {
	RegistryAddr     string
	DispatcherName   string
	StorageNames     []string
	PollInterval     time.Duration // sleep after nextURLToCrawl returns none; default 5s
	ReconnectDelay   time.Duration // sleep after a Dispatcher reconnect failure; default 10s
	FetchTimeout     time.Duration // default 10s
	MulticastRetries int           // delivery attempts (1s x attempt backoff between them) before a node is queued; default 3
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Second
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = 10 * time.Second
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 10 * time.Second
	}
	if c.MulticastRetries <= 0 {
		c.MulticastRetries = 3
	}
	return c
}

// storageTarget is one Storage Node client stub plus its retry queue.
type storageTarget struct {
	name   string
	addr   string
	client *rpc.Client
	queue  []pendingUpdate
}

// Worker pulls URLs from the Dispatcher, fetches and parses them, and
// multicasts the resulting update to every Storage Node it knows about.
type Worker struct {
	cfg     Config
	reg     *rpcdial.Registry
	fetcher fetch.Fetcher
	clock   clock.Clock
	logger  *slog.Logger

	dispatcher *rpc.Client
	targets    []*storageTarget
}

// New builds a Worker. Call Start before Run to resolve the Dispatcher and
// at least one Storage Node.
func New(cfg Config, fetcher fetch.Fetcher, clk clock.Clock, logger *slog.Logger) *Worker {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		cfg:     cfg.withDefaults(),
		reg:     rpcdial.NewRegistry(cfg.RegistryAddr),
		fetcher: fetcher,
		clock:   clk,
		logger:  logger,
	}
}

// Start resolves the Dispatcher and every configured Storage Node through
// the Name Registry. It returns an error if the Dispatcher or every Storage
// Node fails to resolve (a worker with no reachable Storage Node at all
// cannot make progress, per the startup contract).
func (w *Worker) Start() error {
	addr, ok, err := w.reg.Lookup(w.cfg.DispatcherName)
	if err != nil || !ok {
		return fmt.Errorf("crawlerworker: resolving dispatcher %q: %w", w.cfg.DispatcherName, rpcapi.ErrUnreachable)
	}
	client, err := rpc.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("crawlerworker: dialing dispatcher %q at %s: %w", w.cfg.DispatcherName, addr, err)
	}
	w.dispatcher = client

	for _, name := range w.cfg.StorageNames {
		addr, ok, err := w.reg.Lookup(name)
		if err != nil || !ok {
			w.logger.Warn("storage node unresolvable at startup", "name", name)
			continue
		}
		c, err := rpc.Dial("tcp", addr)
		if err != nil {
			w.logger.Warn("storage node unreachable at startup", "name", name, "err", err)
			continue
		}
		w.targets = append(w.targets, &storageTarget{name: name, addr: addr, client: c})
	}
	if len(w.targets) == 0 {
		return fmt.Errorf("crawlerworker: no storage node reachable at startup")
	}
	return nil
}

// Run loops until ctx is cancelled: pull a URL, fetch it, submit discovered
// links back to the Dispatcher, multicast the update, and drain any pending
// per-node retry queues. A sleep of PollInterval follows an empty queue; a
// reconnect attempt follows a Dispatcher call failure, and a ReconnectDelay
// sleep follows a failed reconnect attempt.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		url, ok, err := w.nextURLToCrawl()
		if err != nil {
			w.logger.Warn("dispatcher unreachable, reconnecting", "err", err)
			if !w.reconnectDispatcher() && !w.sleep(ctx, w.cfg.ReconnectDelay) {
				return
			}
			continue
		}
		if !ok {
			w.drainPending()
			if !w.sleep(ctx, w.cfg.PollInterval) {
				return
			}
			continue
		}

		w.crawlOne(ctx, url)
		w.drainPending()
	}
}

func (w *Worker) crawlOne(ctx context.Context, url string) {
	fetchCtx, cancel := context.WithTimeout(ctx, w.cfg.FetchTimeout)
	defer cancel()

	page, err := w.fetcher.Fetch(fetchCtx, url)
	if err != nil {
		w.logger.Info("fetch failed, abandoning URL", "url", url, "err", err)
		return
	}

	for _, link := range page.Links {
		w.submitURL(link)
	}

	w.multicastUpdate(page)
}

func (w *Worker) nextURLToCrawl() (string, bool, error) {
	reply := &rpcapi.NextURLReply{}
	if err := w.dispatcher.Call("Dispatcher.NextURLToCrawl", &struct{}{}, reply); err != nil {
		return "", false, err
	}
	return reply.URL, !reply.Empty, nil
}

func (w *Worker) submitURL(url string) {
	args := &rpcapi.SubmitURLArgs{URL: url}
	reply := &rpcapi.SubmitURLReply{}
	if err := w.dispatcher.Call("Dispatcher.SubmitURL", args, reply); err != nil {
		w.logger.Warn("submitURL failed", "url", url, "err", err)
	}
}

func (w *Worker) sleep(ctx context.Context, d time.Duration) bool {
	timer := w.clock.Timer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// reconnectDispatcher tries to re-resolve the Dispatcher once and reports
// whether it succeeded; on failure Run sleeps ReconnectDelay before the next
// loop iteration tries again.
func (w *Worker) reconnectDispatcher() bool {
	addr, ok, err := w.reg.Lookup(w.cfg.DispatcherName)
	if err != nil || !ok {
		return false
	}
	client, err := rpc.Dial("tcp", addr)
	if err != nil {
		return false
	}
	if w.dispatcher != nil {
		w.dispatcher.Close()
	}
	w.dispatcher = client
	return true
}
