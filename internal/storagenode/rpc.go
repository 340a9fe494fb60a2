package storagenode

import "github.com/codepr/googol/internal/rpcapi"

// Service adapts a Node to the net/rpc calling convention, registered under
// the fixed name "Storage" so callers (the Dispatcher, Crawler Workers, and
// peer Storage Nodes) always dial "Storage.<Method>" regardless of which
// physical node they resolved the name to.
type Service struct {
	node *Node
}

// NewService wraps node for net/rpc registration.
func NewService(node *Node) *Service {
	return &Service{node: node}
}

func (s *Service) Search(args *rpcapi.SearchArgs, reply *rpcapi.SearchReply) error {
	reply.Results = s.node.Search(args.Terms)
	return nil
}

func (s *Service) UpdateIndex(args *rpcapi.UpdateIndexArgs, reply *rpcapi.UpdateIndexReply) error {
	s.node.UpdateIndex(args.URL, args.Title, args.Snippet, args.Terms, args.OutgoingLinks)
	return nil
}

func (s *Service) GetBacklinks(args *rpcapi.BacklinksArgs, reply *rpcapi.BacklinksReply) error {
	reply.URLs = s.node.Backlinks(args.URL)
	return nil
}

func (s *Service) GetBarrelStats(args *struct{}, reply *rpcapi.BarrelStatsReply) error {
	reply.Digest = s.node.BarrelStats()
	return nil
}

func (s *Service) GetInvertedIndex(args *struct{}, reply *rpcapi.IndexDumpReply) error {
	reply.Index = s.node.DumpIndex()
	return nil
}

func (s *Service) GetBacklinksMap(args *struct{}, reply *rpcapi.BacklinksDumpReply) error {
	reply.Backlinks = s.node.DumpBacklinks()
	return nil
}

func (s *Service) GetPageInfoMap(args *struct{}, reply *rpcapi.PageInfoDumpReply) error {
	reply.Pages = s.node.DumpPages()
	return nil
}

func (s *Service) BackupURLQueue(args *rpcapi.BackupURLQueueArgs, reply *rpcapi.BackupURLQueueReply) error {
	s.node.BackupURLQueue(args.Snapshot)
	return nil
}

func (s *Service) RestoreURLQueue(args *struct{}, reply *rpcapi.RestoreURLQueueReply) error {
	reply.Snapshot = s.node.RestoreURLQueue()
	return nil
}
