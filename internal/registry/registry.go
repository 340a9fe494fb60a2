// Package registry implements the Name Registry: an in-memory bind/lookup
// directory standing in for the RMI registry implied by Googol's
// rmi.host/rmi.port configuration keys. Every Googol
// component binds its own name to its listen address on startup and looks
// up peers by name rather than a hardcoded address list, which is what
// makes the "re-resolve by name" reconnect passes (Dispatcher replica
// reconnect, Crawler peer reconnect, Storage Node peer sync) meaningful.
//
// The registry holds no durable state: on restart every component's own
// reconnect path re-binds its name, which is consistent with the rest of
// the system's eventual-consistency posture.
package registry

import (
	"log/slog"
	"sync"

	"github.com/codepr/googol/internal/rpcapi"
)

// Registry is the net/rpc service. Its Bind, Lookup and Unbind methods are
// the RPC surface; New wires a plain in-memory directory behind them.
type Registry struct {
	mu       sync.RWMutex
	bindings map[string]rpcapi.BindArgs
	logger   *slog.Logger
}

// New creates an empty Registry.
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		bindings: make(map[string]rpcapi.BindArgs),
		logger:   logger,
	}
}

// Bind registers (or overwrites) a name -> address binding.
func (r *Registry) Bind(args *rpcapi.BindArgs, reply *rpcapi.BindReply) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings[args.Name] = *args
	r.logger.Info("bound name", "name", args.Name, "addr", args.Addr, "kind", args.Kind)
	return nil
}

// Lookup resolves a name to its bound address, if any.
func (r *Registry) Lookup(args *rpcapi.LookupArgs, reply *rpcapi.LookupReply) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bindings[args.Name]
	reply.Found = ok
	if ok {
		reply.Addr = b.Addr
	}
	return nil
}

// Unbind removes a name's binding.
func (r *Registry) Unbind(args *rpcapi.UnbindArgs, reply *rpcapi.UnbindReply) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bindings, args.Name)
	r.logger.Info("unbound name", "name", args.Name)
	return nil
}

// Names returns every currently bound name of the given kind, or every name
// if kind is empty. It is an in-process helper, not an RPC method; remote
// components resolve peers one configured name at a time through Lookup.
func (r *Registry) Names(kind string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	for name, b := range r.bindings {
		if kind == "" || b.Kind == kind {
			names = append(names, name)
		}
	}
	return names
}
