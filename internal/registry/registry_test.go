package registry

import (
	"testing"

	"github.com/codepr/googol/internal/rpcapi"
)

func TestBindThenLookupFindsAddr(t *testing.T) {
	r := New(nil)
	bindReply := &rpcapi.BindReply{}
	if err := r.Bind(&rpcapi.BindArgs{Name: "gateway", Addr: "127.0.0.1:9000", Kind: rpcapi.KindDispatcher}, bindReply); err != nil {
		t.Fatal(err)
	}
	lookupReply := &rpcapi.LookupReply{}
	if err := r.Lookup(&rpcapi.LookupArgs{Name: "gateway"}, lookupReply); err != nil {
		t.Fatal(err)
	}
	if !lookupReply.Found || lookupReply.Addr != "127.0.0.1:9000" {
		t.Fatalf("unexpected lookup reply: %+v", lookupReply)
	}
}

func TestLookupUnknownNameNotFound(t *testing.T) {
	r := New(nil)
	reply := &rpcapi.LookupReply{}
	if err := r.Lookup(&rpcapi.LookupArgs{Name: "nope"}, reply); err != nil {
		t.Fatal(err)
	}
	if reply.Found {
		t.Fatal("expected Found=false for unknown name")
	}
}

func TestBindOverwritesPriorBinding(t *testing.T) {
	r := New(nil)
	_ = r.Bind(&rpcapi.BindArgs{Name: "barrel0", Addr: "a", Kind: rpcapi.KindStorage}, &rpcapi.BindReply{})
	_ = r.Bind(&rpcapi.BindArgs{Name: "barrel0", Addr: "b", Kind: rpcapi.KindStorage}, &rpcapi.BindReply{})
	reply := &rpcapi.LookupReply{}
	_ = r.Lookup(&rpcapi.LookupArgs{Name: "barrel0"}, reply)
	if reply.Addr != "b" {
		t.Fatalf("expected rebinding to overwrite, got addr %q", reply.Addr)
	}
}

func TestUnbindRemovesBinding(t *testing.T) {
	r := New(nil)
	_ = r.Bind(&rpcapi.BindArgs{Name: "x", Addr: "a", Kind: rpcapi.KindCrawler}, &rpcapi.BindReply{})
	_ = r.Unbind(&rpcapi.UnbindArgs{Name: "x"}, &rpcapi.UnbindReply{})
	reply := &rpcapi.LookupReply{}
	_ = r.Lookup(&rpcapi.LookupArgs{Name: "x"}, reply)
	if reply.Found {
		t.Fatal("expected binding to be removed")
	}
}

func TestNamesFiltersByKind(t *testing.T) {
	r := New(nil)
	_ = r.Bind(&rpcapi.BindArgs{Name: "barrel0", Addr: "a", Kind: rpcapi.KindStorage}, &rpcapi.BindReply{})
	_ = r.Bind(&rpcapi.BindArgs{Name: "barrel1", Addr: "b", Kind: rpcapi.KindStorage}, &rpcapi.BindReply{})
	_ = r.Bind(&rpcapi.BindArgs{Name: "gateway", Addr: "c", Kind: rpcapi.KindDispatcher}, &rpcapi.BindReply{})
	names := r.Names(rpcapi.KindStorage)
	if len(names) != 2 {
		t.Fatalf("expected 2 storage names, got %d: %v", len(names), names)
	}
}
