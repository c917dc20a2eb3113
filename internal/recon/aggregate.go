package recon

import (
	"math"
	"sort"
)

// UnknownGroup collects records whose group key is empty.
const UnknownGroup = UnknownText

// Rollup is a read-only aggregate over one group of a ReconciledSet.
type Rollup struct {
	Group         string       `json:"group"`
	Total         int          `json:"total"`
	Counters      map[Code]int `json:"counters"`
	ProgressRatio int          `json:"progress_ratio"`
}

// GroupFunc returns the group a record belongs to.
type GroupFunc func(Record) string

// StatusFunc returns the code a record is counted under.
type StatusFunc func(Record) Code

// ByField groups by the string form of a field.
func ByField(name string) GroupFunc {
	return func(r Record) string { return r.Text(name) }
}

// StatusOf counts records by the code of a status field.
func StatusOf(name string) StatusFunc {
	return func(r Record) Code { return r.Code(name) }
}

// Aggregate folds set into per-group rollups in one pass. ProgressRatio is
// the share of records counted under success, as a rounded percentage; it
// is 0 for an empty group.
func Aggregate(set ReconciledSet, group GroupFunc, status StatusFunc, success Code) map[string]*Rollup {
	out := make(map[string]*Rollup)
	for _, rec := range set {
		g := group(rec)
		if g == "" {
			g = UnknownGroup
		}
		r, ok := out[g]
		if !ok {
			r = &Rollup{Group: g, Counters: make(map[Code]int)}
			out[g] = r
		}
		c := status(rec)
		if c == "" {
			c = Unknown
		}
		r.Total++
		r.Counters[c]++
	}
	for _, r := range out {
		r.ProgressRatio = Ratio(r.Counters[success], r.Total)
	}
	return out
}

// Ratio returns part/total as a rounded integer percentage, 0 when total is 0.
func Ratio(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) * 100 / float64(total)))
}

// SortRollups returns the rollups largest group first, ties by group name.
func SortRollups(m map[string]*Rollup) []*Rollup {
	out := make([]*Rollup, 0, len(m))
	for _, r := range m {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Group < out[j].Group
	})
	return out
}
