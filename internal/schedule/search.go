package schedule

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Builder creates a fresh, unscheduled season. Search calls it once per attempt
// so attempts never share entities.
type Builder func() (*Season, error)

// Attempt is one generated season and how well it balanced.
type Attempt struct {
	Season *Season
	Seed   int64
	Score  float64
}

// Search generates attempts seasons with seeds seed, seed+1, ... in parallel
// and returns the one with the lowest balance score. Ties go to the lower seed.
func Search(ctx context.Context, build Builder, seed int64, attempts int) (*Attempt, error) {
	if attempts < 1 {
		attempts = 1
	}
	results := make([]*Attempt, attempts)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < attempts; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s, err := build()
			if err != nil {
				return fmt.Errorf("building attempt %d: %w", i+1, err)
			}
			sd := seed + int64(i)
			s.Generate(sd)
			results[i] = &Attempt{Season: s, Seed: sd, Score: s.Report().Balance.Score()}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	best := results[0]
	for _, r := range results[1:] {
		if r.Score < best.Score {
			best = r
		}
	}
	return best, nil
}
