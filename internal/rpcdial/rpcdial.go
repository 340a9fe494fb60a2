// Package rpcdial collects the small amount of net/rpc plumbing shared by
// every Googol process: dialing a peer by network address with bounded
// retry/backoff, and resolving a peer's address by name through the Name
// Registry.
package rpcdial

import (
	"fmt"
	"net/rpc"
	"time"

	"github.com/codepr/googol/internal/rpcapi"
)

// DialRetry dials addr, trying up to attempts times with delay between tries.
// Used for the Dispatcher's bounded-retry queue-snapshot restore on startup
// (5 attempts, 2s delay) and anywhere else a transient
// connection failure should not be fatal immediately.
func DialRetry(addr string, attempts int, delay time.Duration) (*rpc.Client, error) {
	var lastErr error
	for i := 0; i < attempts; i++ {
		client, err := rpc.Dial("tcp", addr)
		if err == nil {
			return client, nil
		}
		lastErr = err
		if i < attempts-1 {
			time.Sleep(delay)
		}
	}
	return nil, fmt.Errorf("rpcdial: dialing %s after %d attempts: %w", addr, attempts, lastErr)
}

// Registry is a thin client for the Name Registry service: Bind, Lookup and
// Unbind a component name to/from a network address.
type Registry struct {
	addr string
}

// NewRegistry returns a client pointed at the Name Registry listening on
// addr (rmi.host:rmi.port in the configuration surface).
func NewRegistry(addr string) *Registry {
	return &Registry{addr: addr}
}

func (r *Registry) dial() (*rpc.Client, error) {
	client, err := rpc.Dial("tcp", r.addr)
	if err != nil {
		return nil, fmt.Errorf("rpcdial: dialing registry at %s: %w: %w", r.addr, rpcapi.ErrUnreachable, err)
	}
	return client, nil
}

// Bind registers name -> addr for the given component kind, overwriting any
// prior binding.
func (r *Registry) Bind(name, addr, kind string) error {
	client, err := r.dial()
	if err != nil {
		return err
	}
	defer client.Close()
	args := &rpcapi.BindArgs{Name: name, Addr: addr, Kind: kind}
	reply := &rpcapi.BindReply{}
	return client.Call("Registry.Bind", args, reply)
}

// Lookup resolves name to its currently bound address. ok is false if no
// binding exists (the name was never bound, or was unbound).
func (r *Registry) Lookup(name string) (addr string, ok bool, err error) {
	client, err := r.dial()
	if err != nil {
		return "", false, err
	}
	defer client.Close()
	args := &rpcapi.LookupArgs{Name: name}
	reply := &rpcapi.LookupReply{}
	if err := client.Call("Registry.Lookup", args, reply); err != nil {
		return "", false, err
	}
	return reply.Addr, reply.Found, nil
}

// Unbind removes name's binding, if any.
func (r *Registry) Unbind(name string) error {
	client, err := r.dial()
	if err != nil {
		return err
	}
	defer client.Close()
	args := &rpcapi.UnbindArgs{Name: name}
	reply := &rpcapi.UnbindReply{}
	return client.Call("Registry.Unbind", args, reply)
}
