// Command dispatcher runs the Googol Dispatcher: the central coordinator
// owning the URL queue, routing search/backlink lookups to Storage Nodes,
// and pushing aggregated statistics to subscribers.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/codepr/googol/internal/config"
	"github.com/codepr/googol/internal/dispatcher"
	"github.com/codepr/googol/internal/logging"
	"github.com/codepr/googol/internal/rpcapi"
	"github.com/codepr/googol/internal/rpcdial"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "dispatcher:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to the Googol YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logger := logging.New("dispatcher")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	barrelNames := make([]string, cfg.Barrels.Count)
	for i := range barrelNames {
		barrelNames[i] = cfg.BarrelName(i)
	}

	d := dispatcher.New(dispatcher.Config{
		RegistryAddr: cfg.RegistryAddr(),
		SelfName:     cfg.Gateway.Name,
		BarrelNames:  barrelNames,
		LogPath:      "indexed_urls.log",
	}, nil, logger)

	logger.Info("recovering queue state from replica snapshots")
	d.Recover()
	d.ReconnectReplicas()

	listenAddr := cfg.Gateway.Addr
	if listenAddr == "" {
		listenAddr = "0.0.0.0:0"
	}
	addr, err := rpcdial.ServeNamed(ctx, listenAddr, "Dispatcher", dispatcher.NewService(d), logger)
	if err != nil {
		return err
	}

	regClient := rpcdial.NewRegistry(cfg.RegistryAddr())
	if err := regClient.Bind(cfg.Gateway.Name, addr, rpcapi.KindDispatcher); err != nil {
		return fmt.Errorf("dispatcher: binding %q in name registry: %w", cfg.Gateway.Name, err)
	}
	logger.Info("dispatcher listening", "name", cfg.Gateway.Name, "addr", addr)

	stop := make(chan struct{})
	defer close(stop)
	go d.RunStatsPush(cfg.StatsMonitorInterval(), stop)

	<-ctx.Done()
	logger.Info("shutting down")
	_ = regClient.Unbind(cfg.Gateway.Name)
	return nil
}
