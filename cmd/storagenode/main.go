// Command storagenode runs a single Googol Storage Node ("Barrel"): it
// syncs its inverted index, backlink map and page metadata from a peer or
// its own disk snapshot on startup, then serves search/backlink/update RPCs
// until terminated. Its only positional argument is its numeric index among
// the configured barrels; index 0 is the primary and runs the periodic
// disk-snapshot task.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/codepr/googol/internal/config"
	"github.com/codepr/googol/internal/logging"
	"github.com/codepr/googol/internal/rpcapi"
	"github.com/codepr/googol/internal/rpcdial"
	"github.com/codepr/googol/internal/storagenode"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "storagenode:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to the Googol YAML configuration file")
	stateDir := flag.String("state-dir", ".", "directory for snapshot files")
	flag.Parse()

	if flag.NArg() != 1 {
		return fmt.Errorf("usage: storagenode [-config path] [-state-dir dir] <index>")
	}
	index, err := strconv.Atoi(flag.Arg(0))
	if err != nil {
		return fmt.Errorf("storagenode: invalid index %q: %w", flag.Arg(0), err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	name := cfg.BarrelName(index)
	logger := logging.New(name)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	node := storagenode.New(storagenode.Config{
		Name:          name,
		IsPrimary:     index == 0,
		BloomExpected: cfg.Bloom.ExpectedElements,
		BloomFalsePos: cfg.Bloom.FalsePositiveRate,
		StateDir:      *stateDir,
	}, nil, logger)

	peerNames := make([]string, cfg.Barrels.Count)
	for i := range peerNames {
		peerNames[i] = cfg.BarrelName(i)
	}
	node.Recover(cfg.RegistryAddr(), name, peerNames)

	addr, err := rpcdial.ServeNamed(ctx, "0.0.0.0:0", "Storage", storagenode.NewService(node), logger)
	if err != nil {
		return err
	}

	regClient := rpcdial.NewRegistry(cfg.RegistryAddr())
	if err := regClient.Bind(name, addr, rpcapi.KindStorage); err != nil {
		return fmt.Errorf("storagenode: binding %q in name registry: %w", name, err)
	}
	logger.Info("storage node listening", "name", name, "addr", addr, "primary", index == 0)

	stop := make(chan struct{})
	defer close(stop)
	if index == 0 {
		go node.RunAutosave(cfg.AutosaveInterval(), stop)
	}

	<-ctx.Done()
	logger.Info("shutting down")
	if index == 0 {
		node.SnapshotToDisk()
	}
	_ = regClient.Unbind(name)
	return nil
}
