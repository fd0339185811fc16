package balance

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/groupbalance/core/model"
)

// GlobalAverage returns the arithmetic mean score of the roster.
func GlobalAverage(roster []model.Entry) float64 {
	return stat.Mean(model.Group(roster).Scores(), nil)
}

// Score returns the population standard deviation, over groups, of each
// group's mean score minus globalAverage. Lower is better; a partition whose
// group means all equal globalAverage scores 0.
func Score(groups []model.Group, globalAverage float64) (float64, error) {
	if len(groups) == 0 {
		return 0, fmt.Errorf("%w: partition has no groups", ErrDegenerateGroup)
	}
	diffs := make([]float64, len(groups))
	for i, g := range groups {
		if len(g) == 0 {
			return 0, fmt.Errorf("%w: group %d is empty", ErrDegenerateGroup, i)
		}
		diffs[i] = stat.Mean(g.Scores(), nil) - globalAverage
	}
	variance := stat.PopVariance(diffs, nil)
	if variance <= 0 {
		return 0, nil
	}
	return math.Sqrt(variance), nil
}
