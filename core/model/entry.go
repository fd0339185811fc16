package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Entry is one person on a roster together with their measured score.
type Entry struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Validate reports whether the entry carries a usable score.
func (e Entry) Validate() error {
	if math.IsNaN(e.Score) || math.IsInf(e.Score, 0) {
		return fmt.Errorf("entry %q: score must be finite, got %v", e.ID, e.Score)
	}
	return nil
}

// Group is one subset of a roster inside a Partition.
type Group []Entry

// Scores returns the scores of the group members in order.
func (g Group) Scores() []float64 {
	out := make([]float64, len(g))
	for i, e := range g {
		out[i] = e.Score
	}
	return out
}

// IDs returns the member identifiers in order.
func (g Group) IDs() []string {
	out := make([]string, len(g))
	for i, e := range g {
		out[i] = e.ID
	}
	return out
}

// Mean returns the arithmetic mean score of the group, or 0 for an empty group.
func (g Group) Mean() float64 {
	if len(g) == 0 {
		return 0
	}
	return stat.Mean(g.Scores(), nil)
}

// Partition is an ordered division of a roster into groups.
type Partition []Group

// Size returns the total number of entries across all groups.
func (p Partition) Size() int {
	n := 0
	for _, g := range p {
		n += len(g)
	}
	return n
}

// Clone returns a deep copy that shares no backing arrays with p.
func (p Partition) Clone() Partition {
	if p == nil {
		return nil
	}
	out := make(Partition, len(p))
	for i, g := range p {
		out[i] = append(Group(nil), g...)
	}
	return out
}

// Result is the best partition found by a search along with its fitness.
type Result struct {
	Partition     Partition `json:"groups"`
	Fitness       float64   `json:"fitness"`
	Iteration     int       `json:"iteration"`
	GlobalAverage float64   `json:"global_average"`
}
