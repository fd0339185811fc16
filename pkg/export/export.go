// Package export writes search results in machine-readable formats.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/kilianp07/groupbalance/core/balance"
	"github.com/kilianp07/groupbalance/core/model"
)

// Formats accepted by Write.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Group is one exported group with its average score.
type Group struct {
	Index   int           `json:"index"`
	Mean    float64       `json:"mean"`
	Members []model.Entry `json:"members"`
}

// Report is the exported form of a finished run.
type Report struct {
	RunID         string  `json:"run_id"`
	Seed          uint64  `json:"seed"`
	Fitness       float64 `json:"fitness"`
	GlobalAverage float64 `json:"global_average"`
	Iteration     int     `json:"iteration"`
	Groups        []Group `json:"groups"`
}

// NewReport converts a run into its exported form.
func NewReport(run *balance.Run) Report {
	r := Report{
		RunID:         run.ID,
		Seed:          run.Seed,
		Fitness:       run.Result.Fitness,
		GlobalAverage: run.Result.GlobalAverage,
		Iteration:     run.Result.Iteration,
		Groups:        make([]Group, len(run.Result.Partition)),
	}
	for i, g := range run.Result.Partition.Clone() {
		r.Groups[i] = Group{Index: i + 1, Mean: g.Mean(), Members: g}
	}
	return r
}

// Write dispatches to WriteJSON or WriteCSV.
func Write(w io.Writer, format string, r Report) error {
	switch format {
	case FormatJSON, "":
		return WriteJSON(w, r)
	case FormatCSV:
		return WriteCSV(w, r)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteCSV writes one row per member: group,id,score,group_mean.
func WriteCSV(w io.Writer, r Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"group", "id", "score", "group_mean"}); err != nil {
		return err
	}
	for _, g := range r.Groups {
		mean := strconv.FormatFloat(g.Mean, 'f', -1, 64)
		for _, m := range g.Members {
			rec := []string{
				strconv.Itoa(g.Index),
				m.ID,
				strconv.FormatFloat(m.Score, 'f', -1, 64),
				mean,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
