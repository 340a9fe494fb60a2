package rpcdial

import (
	"context"
	"log/slog"
	"net"
	"net/rpc"
)

// Serve registers svc under its default net/rpc name (its concrete type
// name) on a freshly listening TCP socket bound to listenAddr ("host:port",
// or "host:0" to let the OS pick a free port), accepts connections until ctx
// is cancelled, and returns the address actually bound (useful when
// listenAddr's port was 0).
func Serve(ctx context.Context, listenAddr string, svc any, logger *slog.Logger) (string, error) {
	return ServeNamed(ctx, listenAddr, "", svc, logger)
}

// ServeNamed is Serve, but registers svc under an explicit RPC service name
// (e.g. "Storage", "Dispatcher") instead of its Go type name, so callers can
// dial "Storage.Search" regardless of which concrete type backs a given
// physical node.
func ServeNamed(ctx context.Context, listenAddr, name string, svc any, logger *slog.Logger) (string, error) {
	server := rpc.NewServer()
	var err error
	if name != "" {
		err = server.RegisterName(name, svc)
	} else {
		err = server.Register(svc)
	}
	if err != nil {
		return "", err
	}
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return "", err
	}
	addr := listener.Addr().String()

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				select {
				case <-ctx.Done():
					return
				default:
					if logger != nil {
						logger.Warn("rpc accept failed", "err", err)
					}
					return
				}
			}
			go server.ServeConn(conn)
		}
	}()

	return addr, nil
}
