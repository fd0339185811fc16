package balance

import (
	"fmt"
	"math/rand/v2"

	"github.com/kilianp07/groupbalance/core/model"
)

// GroupCount returns the number of groups needed to hold n entries in groups
// of at most groupSize members.
func GroupCount(n, groupSize int) int {
	if n <= 0 || groupSize <= 0 {
		return 0
	}
	return (n + groupSize - 1) / groupSize
}

// GroupSizes returns the member count of each group for n entries split into
// k groups. The first n%k groups hold one extra member.
func GroupSizes(n, k int) []int {
	if k <= 0 {
		return nil
	}
	base, extra := n/k, n%k
	sizes := make([]int, k)
	for i := range sizes {
		sizes[i] = base
		if i < extra {
			sizes[i]++
		}
	}
	return sizes
}

func validateShape(roster []model.Entry, groupSize int) error {
	if len(roster) == 0 {
		return fmt.Errorf("%w: roster is empty", ErrInvalidInput)
	}
	if groupSize < 1 {
		return fmt.Errorf("%w: group size must be positive, got %d", ErrInvalidInput, groupSize)
	}
	if groupSize > len(roster) {
		return fmt.Errorf("%w: group size %d exceeds roster size %d", ErrDegenerateGroup, groupSize, len(roster))
	}
	return nil
}

// Partition shuffles a copy of roster with rng and cuts it into
// GroupCount(len(roster), groupSize) contiguous groups sized by GroupSizes.
// The roster itself is left untouched.
func Partition(rng *rand.Rand, roster []model.Entry, groupSize int) (model.Partition, error) {
	if err := validateShape(roster, groupSize); err != nil {
		return nil, err
	}
	return partition(rng, roster, groupSize), nil
}

func partition(rng *rand.Rand, roster []model.Entry, groupSize int) model.Partition {
	shuffled := make([]model.Entry, len(roster))
	copy(shuffled, roster)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	sizes := GroupSizes(len(shuffled), GroupCount(len(shuffled), groupSize))
	groups := make(model.Partition, len(sizes))
	start := 0
	for i, sz := range sizes {
		// full slice expression so appending to one group never spills into the next
		groups[i] = model.Group(shuffled[start : start+sz : start+sz])
		start += sz
	}
	return groups
}
