package collision

import (
	"context"
	"runtime"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/lmontaut/coal/bvh"
	"github.com/lmontaut/coal/query"
	"github.com/lmontaut/coal/spatialmath"
)

// DistancePair is one distance query of a batch.
type DistancePair[P Primitive[P]] struct {
	Model1 *bvh.Model[P]
	Tf1    spatialmath.Pose
	Model2 *bvh.Model[P]
	Tf2    spatialmath.Pose
}

// DistanceBatch runs one distance query per pair, in parallel, and returns the results in pair order.
// Every query gets its own node and result, so models may appear in any number of pairs. Options are
// shared, which makes WithStatistics unsuitable here.
func DistanceBatch[P Primitive[P]](
	ctx context.Context,
	pairs []DistancePair[P],
	req query.DistanceRequest,
	opts ...Option,
) ([]*query.DistanceResult, error) {
	results := lo.Times(len(pairs), func(int) *query.DistanceResult {
		return query.NewDistanceResult()
	})

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, pair := range pairs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := Distance(pair.Model1, pair.Tf1, pair.Model2, pair.Tf2, req, results[i], opts...); err != nil {
				return errors.Wrapf(err, "pair %d", i)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
