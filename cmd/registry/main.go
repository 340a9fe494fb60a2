// Command registry runs the Googol Name Registry: the bind/lookup directory
// every other Googol process uses in place of a hardcoded peer list.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/codepr/googol/internal/config"
	"github.com/codepr/googol/internal/logging"
	"github.com/codepr/googol/internal/registry"
	"github.com/codepr/googol/internal/rpcdial"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "registry:", err)
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

	logger := logging.New("registry")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	reg := registry.New(logger)
	addr, err := rpcdial.Serve(ctx, cfg.RegistryAddr(), reg, logger)
	if err != nil {
		return err
	}
	logger.Info("name registry listening", "addr", addr)

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}
