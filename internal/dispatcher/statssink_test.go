package dispatcher

import (
	"context"
	"testing"

	"github.com/codepr/googol/internal/rpcapi"
	"github.com/codepr/googol/internal/rpcdial"
)

// statsSink is a minimal net/rpc StatsSink used to assert push delivery in
// tests; it forwards every received digest onto a channel.
type statsSink struct {
	received chan<- string
}

func (s *statsSink) OnStatisticsUpdate(args *rpcapi.OnStatisticsUpdateArgs, reply *rpcapi.OnStatisticsUpdateReply) error {
	s.received <- args.Digest
	return nil
}

func startStatsSink(t *testing.T, received chan<- string) string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	addr, err := rpcdial.ServeNamed(ctx, "127.0.0.1:0", "StatsSink", &statsSink{received: received}, nil)
	if err != nil {
		t.Fatal(err)
	}
	return addr
}
