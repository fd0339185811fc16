package balance

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/groupbalance/core/model"
)

func abcd() []model.Entry {
	return []model.Entry{{ID: "A", Score: 10}, {ID: "B", Score: 20}, {ID: "C", Score: 30}, {ID: "D", Score: 40}}
}

// With a single iteration the result is exactly that iteration's partition.
func TestSearchSingleIteration(t *testing.T) {
	res, err := Search(context.Background(), rand.New(rand.NewPCG(42, 0)), abcd(), 2, 1)
	require.NoError(t, err)

	p, err := Partition(rand.New(rand.NewPCG(42, 0)), abcd(), 2)
	require.NoError(t, err)
	want, err := Score(p, 25)
	require.NoError(t, err)

	assert.Equal(t, p, res.Partition)
	assert.Equal(t, want, res.Fitness)
	assert.Equal(t, 0, res.Iteration)
	assert.Equal(t, 25.0, res.GlobalAverage)
	require.Len(t, res.Partition, 2)
	assert.Len(t, res.Partition[0], 2)
	assert.Len(t, res.Partition[1], 2)
}

// The returned best is no worse than any individual iteration.
func TestSearchKeepsMinimum(t *testing.T) {
	roster := newRoster(17)
	const iterations = 200
	res, err := Search(context.Background(), rand.New(rand.NewPCG(5, 0)), roster, 4, iterations)
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(5, 0))
	avg := GlobalAverage(roster)
	lowest, at := math.Inf(1), -1
	for i := 0; i < iterations; i++ {
		p, err := Partition(rng, roster, 4)
		require.NoError(t, err)
		s, err := Score(p, avg)
		require.NoError(t, err)
		if s < lowest {
			lowest, at = s, i
		}
	}
	assert.Equal(t, lowest, res.Fitness)
	assert.Equal(t, at, res.Iteration)
}

func TestBestOffer(t *testing.T) {
	var b best
	seq := []float64{5, 7, 3, 3, 4, 1, 1}
	prev := math.Inf(1)
	for i, f := range seq {
		b.offer(model.Partition{{{ID: "x", Score: f}}}, f, i)
		assert.LessOrEqual(t, b.fitness, prev, "fitness must never increase")
		prev = b.fitness
	}
	assert.Equal(t, 1.0, b.fitness)
	assert.Equal(t, 5, b.iteration, "ties keep the earlier partition")

	var first best
	assert.True(t, first.offer(nil, math.MaxFloat64, 0), "first offer is always adopted")
}

// Identical scores give every iteration the same fitness; the first wins.
func TestSearchTieKeepsFirst(t *testing.T) {
	roster := make([]model.Entry, 8)
	for i := range roster {
		roster[i] = model.Entry{ID: string(rune('a' + i)), Score: 50}
	}
	res, err := Search(context.Background(), rand.New(rand.NewPCG(1, 1)), roster, 3, 50)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Iteration)
	assert.Equal(t, 0.0, res.Fitness)
}

func TestSearchInvalidInput(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewPCG(1, 1))
	cases := []struct {
		name       string
		roster     []model.Entry
		groupSize  int
		iterations int
		want       error
	}{
		{"empty roster", nil, 2, 10, ErrInvalidInput},
		{"empty roster any size", []model.Entry{}, 0, 0, ErrInvalidInput},
		{"zero group size", abcd(), 0, 10, ErrInvalidInput},
		{"negative iterations", abcd(), 2, -1, ErrInvalidInput},
		{"nan score", []model.Entry{{ID: "a", Score: math.NaN()}, {ID: "b", Score: 1}}, 1, 1, ErrInvalidInput},
		{"group larger than roster", abcd(), 5, 10, ErrDegenerateGroup},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			res, err := Search(ctx, rng, c.roster, c.groupSize, c.iterations)
			assert.True(t, errors.Is(err, c.want), "got %v", err)
			assert.Nil(t, res.Partition)
		})
	}
}

func TestSearchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Search(ctx, rand.New(rand.NewPCG(1, 1)), abcd(), 2, 1000)
	assert.ErrorIs(t, err, context.Canceled)
}
