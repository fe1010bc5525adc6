package erasure

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// BatchItem is the outcome of one request in EraseAll.
type BatchItem struct {
	Request EraseRequest
	Result  *Result
	Err     error
}

// EraseAll runs independent erasures concurrently, bounded by the
// configured concurrency. Items are returned in request order; one
// failure never stops the others.
func (s *Service) EraseAll(ctx context.Context, reqs []EraseRequest) []BatchItem {
	items := make([]BatchItem, len(reqs))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, req := range reqs {
		g.Go(func() error {
			result, err := s.Erase(ctx, req)
			items[i] = BatchItem{Request: req, Result: result, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return items
}
