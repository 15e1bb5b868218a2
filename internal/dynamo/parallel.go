package dynamo

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Job pairs a problem with the integrator that should solve it.
type Job struct {
	Name       string
	Integrator Integrator
	Problem    Problem
}

// RunBatch integrates independent jobs concurrently, at most limit at a time
// (limit <= 0 means unbounded). Results are returned in job order. The first
// failure cancels the remaining runs.
func RunBatch(ctx context.Context, jobs []Job, limit int) ([]*Trajectory, error) {
	results := make([]*Trajectory, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, job := range jobs {
		g.Go(func() error {
			tr, err := job.Integrator.Integrate(ctx, job.Problem)
			if err != nil {
				return fmt.Errorf("%s: %w", job.Name, err)
			}
			results[i] = tr
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
