// Command crawlerworker runs a Googol Crawler process: cfg.Downloader.Threads
// independent worker loops, each pulling its own URL from the Dispatcher,
// fetching and parsing it, and multicasting the resulting update to every
// Storage Node.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/codepr/googol/internal/config"
	"github.com/codepr/googol/internal/crawlerworker"
	"github.com/codepr/googol/internal/fetch"
	"github.com/codepr/googol/internal/logging"
)

const defaultUserAgent = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "crawlerworker:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to the Googol YAML configuration file")
	userAgent := flag.String("user-agent", defaultUserAgent, "User-Agent header sent on every fetch")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logger := logging.New("crawlerworker")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	barrelNames := make([]string, cfg.Barrels.Count)
	for i := range barrelNames {
		barrelNames[i] = cfg.BarrelName(i)
	}

	fetcher := fetch.New(*userAgent, 10*time.Second)

	var wg sync.WaitGroup
	for i := 0; i < cfg.Downloader.Threads; i++ {
		w := crawlerworker.New(crawlerworker.Config{
			RegistryAddr:   cfg.RegistryAddr(),
			DispatcherName: cfg.Gateway.Name,
			StorageNames:   barrelNames,
		}, fetcher, nil, logger)

		if err := w.Start(); err != nil {
			return fmt.Errorf("crawlerworker: worker %d: %w", i, err)
		}

		wg.Add(1)
		go func(worker *crawlerworker.Worker) {
			defer wg.Done()
			worker.Run(ctx)
		}(w)
	}

	<-ctx.Done()
	logger.Info("shutting down, waiting for worker loops to exit")
	wg.Wait()
	return nil
}
