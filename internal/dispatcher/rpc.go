package dispatcher

import "github.com/codepr/googol/internal/rpcapi"

// Service adapts a Dispatcher to the net/rpc calling convention, registered
// under the fixed name "Dispatcher".
type Service struct {
	d *Dispatcher
}

// NewService wraps d for net/rpc registration.
func NewService(d *Dispatcher) *Service {
	return &Service{d: d}
}

func (s *Service) SubmitURL(args *rpcapi.SubmitURLArgs, reply *rpcapi.SubmitURLReply) error {
	s.d.SubmitURL(args.URL)
	return nil
}

func (s *Service) Search(args *rpcapi.DispatcherSearchArgs, reply *rpcapi.DispatcherSearchReply) error {
	results, err := s.d.Search(args.Query)
	if err != nil {
		return err
	}
	reply.Results = results
	return nil
}

func (s *Service) GetBacklinks(args *rpcapi.DispatcherBacklinksArgs, reply *rpcapi.DispatcherBacklinksReply) error {
	urls, err := s.d.GetBacklinks(args.URL)
	if err != nil {
		return err
	}
	reply.URLs = urls
	return nil
}

func (s *Service) GetStatistics(args *struct{}, reply *rpcapi.StatisticsReply) error {
	reply.Digest = s.d.GetStatistics()
	return nil
}

func (s *Service) NextURLToCrawl(args *struct{}, reply *rpcapi.NextURLReply) error {
	url, ok := s.d.NextURLToCrawl()
	reply.URL = url
	reply.Empty = !ok
	return nil
}

func (s *Service) SubscribeStats(args *rpcapi.SubscribeStatsArgs, reply *rpcapi.SubscribeStatsReply) error {
	s.d.SubscribeStats(args.CallbackAddr)
	return nil
}

func (s *Service) UnsubscribeStats(args *rpcapi.UnsubscribeStatsArgs, reply *rpcapi.UnsubscribeStatsReply) error {
	s.d.UnsubscribeStats(args.CallbackAddr)
	return nil
}
