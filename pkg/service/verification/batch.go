package verification

import (
	"context"

	sdkutil "github.com/TBD54566975/ssi-sdk/util"
	"golang.org/x/sync/errgroup"
)

// BatchVerify verifies credentials concurrently, at most BatchConcurrency at a time. Reports are
// in request order. A cancelled context stops the batch.
func (s *Service) BatchVerify(ctx context.Context, request BatchVerifyRequest) (*BatchVerifyResponse, error) {
	if !request.IsValid() {
		return nil, sdkutil.LoggingNewError("invalid batch verify request")
	}
	if limit := s.config.BatchLimit; limit > 0 && len(request.Requests) > limit {
		return nil, sdkutil.LoggingNewErrorf("batch of %d credentials exceeds the limit of %d", len(request.Requests), limit)
	}

	reports := make([]VerificationReport, len(request.Requests))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.config.BatchConcurrency)
	for i, r := range request.Requests {
		i, r := i, r
		group.Go(func() error {
			report, err := s.Verify(groupCtx, r)
			if err != nil {
				return err
			}
			reports[i] = *report
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return &BatchVerifyResponse{Reports: reports}, nil
}
