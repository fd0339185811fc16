package balance

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/kilianp07/groupbalance/core/model"
)

// cancelCheckEvery controls how often the search loop polls its context.
const cancelCheckEvery = 64

// Validate checks roster, group size and iteration count before a search.
func Validate(roster []model.Entry, groupSize, iterations int) error {
	if err := validateShape(roster, groupSize); err != nil {
		return err
	}
	if iterations < 1 {
		return fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalidInput, iterations)
	}
	for _, e := range roster {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}
	return nil
}

// best accumulates the lowest-scoring partition seen so far.
type best struct {
	partition model.Partition
	fitness   float64
	iteration int
	set       bool
}

// offer adopts the candidate unconditionally on the first call and afterwards
// only when its fitness is strictly lower. Ties keep the earlier partition.
func (b *best) offer(p model.Partition, fitness float64, iteration int) bool {
	if b.set && fitness >= b.fitness {
		return false
	}
	b.partition, b.fitness, b.iteration, b.set = p, fitness, iteration, true
	return true
}

func (b *best) result(globalAverage float64) model.Result {
	return model.Result{
		Partition:     b.partition,
		Fitness:       b.fitness,
		Iteration:     b.iteration,
		GlobalAverage: globalAverage,
	}
}

// improvementFunc is notified each time the running best is replaced.
type improvementFunc func(iteration int, fitness float64)

// run folds iterations [from, to) into a best accumulator.
func run(ctx context.Context, rng *rand.Rand, roster []model.Entry, groupSize int, globalAverage float64, from, to int, onImprove improvementFunc) (best, error) {
	var acc best
	for it := from; it < to; it++ {
		if (it-from)%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return best{}, err
			}
		}
		p := partition(rng, roster, groupSize)
		fitness, err := Score(p, globalAverage)
		if err != nil {
			return best{}, err
		}
		if acc.offer(p, fitness, it) && onImprove != nil {
			onImprove(it, fitness)
		}
	}
	return acc, nil
}

// Search runs exactly iterations rounds of Partition and Score on a single
// goroutine and returns the lowest-scoring partition. The global average is
// computed once from the full roster. Inputs are validated before the first
// iteration and no partial result is returned on error.
func Search(ctx context.Context, rng *rand.Rand, roster []model.Entry, groupSize, iterations int) (model.Result, error) {
	if err := Validate(roster, groupSize, iterations); err != nil {
		return model.Result{}, err
	}
	avg := GlobalAverage(roster)
	acc, err := run(ctx, rng, roster, groupSize, avg, 0, iterations, nil)
	if err != nil {
		return model.Result{}, err
	}
	return acc.result(avg), nil
}
