package tuner

import (
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

// ValueCount is one row of a parameter report.
type ValueCount struct {
	Value float64
	Count int
}

// ParameterReport is the frequency distribution of every value the operator
// settled on for one parameter, ordered by descending frequency. Ties keep
// the order the values were first seen in.
type ParameterReport struct {
	Field  string
	Counts []ValueCount
}

// Recommended is the most frequent value across the session.
func (r *ParameterReport) Recommended() float64 {
	return r.Counts[0].Value
}

// Render formats the distribution as a table with mean and median footers.
func (r *ParameterReport) Render() string {
	w := table.NewWriter()
	w.SetTitle(r.Field)
	w.AppendHeader(table.Row{"value", "frequency"})
	values := make([]float64, 0, len(r.Counts))
	for _, vc := range r.Counts {
		w.AppendRow(table.Row{vc.Value, vc.Count})
		for i := 0; i < vc.Count; i++ {
			values = append(values, vc.Value)
		}
	}
	mean, err := stats.Mean(values)
	if err == nil {
		w.AppendFooter(table.Row{"mean", mean})
	}
	median, err := stats.Median(values)
	if err == nil {
		w.AppendFooter(table.Row{"median", median})
	}
	return w.Render()
}

// ReportParameter tallies every historical value recorded for the field,
// including the currently displayed one, without mutating the session.
func (t *Tuner) ReportParameter(field string) (*ParameterReport, error) {
	current, err := t.matcher.Get(field)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", field)
	}
	var order []float64
	counts := map[float64]int{}
	record := func(v float64) {
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}
	for _, snap := range t.history {
		if v, ok := snap[field]; ok {
			record(v)
		}
	}
	record(current)

	report := &ParameterReport{Field: field, Counts: make([]ValueCount, len(order))}
	for i, v := range order {
		report.Counts[i] = ValueCount{Value: v, Count: counts[v]}
	}
	sort.SliceStable(report.Counts, func(i, j int) bool {
		return report.Counts[i].Count > report.Counts[j].Count
	})
	return report, nil
}
