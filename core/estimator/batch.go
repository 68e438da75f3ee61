package estimator

import (
	"context"

	"golang.org/x/sync/errgroup"

	"premium-estimator/core/types"
)

// DefaultWorkers bounds batch parallelism when the caller passes zero
const DefaultWorkers = 4

// EstimateBatch prices records concurrently and returns quotes in input
// order. The first error cancels the remaining work. Learned estimators
// encode the whole batch first so numeric gaps take the batch median.
func EstimateBatch(ctx context.Context, est Estimator, recs []types.Record, workers int) ([]*types.Quote, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if l, ok := est.(*Learned); ok {
		return l.estimateBatch(ctx, recs, workers)
	}

	quotes := make([]*types.Quote, len(recs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, rec := range recs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			q, err := est.Estimate(rec)
			if err != nil {
				return err
			}
			quotes[i] = q
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return quotes, nil
}

func (l *Learned) estimateBatch(ctx context.Context, recs []types.Record, workers int) ([]*types.Quote, error) {
	prepared := make([]types.Record, len(recs))
	for i, rec := range recs {
		p, err := l.prepare(rec)
		if err != nil {
			return nil, err
		}
		prepared[i] = p
	}
	rows := l.encoder.EncodeBatch(prepared)

	quotes := make([]*types.Quote, len(rows))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, row := range rows {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			q, err := l.quote(row)
			if err != nil {
				return err
			}
			quotes[i] = q
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return quotes, nil
}
