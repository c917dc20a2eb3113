package recon

import (
	"slices"
	"strconv"
)

// ReconciledSet holds one record per identity key, most recent first.
type ReconciledSet []Record

// Reconcile keeps, for every identity key, the record with the latest
// tsField. Ties, including two unparseable timestamps, go to the record
// seen last. Winners are ordered by descending timestamp; unparseable ones
// go last, and equal timestamps keep the order their keys first appeared in.
// Records that cannot be keyed are kept as singletons.
func Reconcile(recs []Record, spec KeySpec, tsField string) ReconciledSet {
	slots := make(map[string]int, len(recs))
	winners := make([]Record, 0, len(recs))

	for i, rec := range recs {
		key, ok := BuildKey(rec, spec)
		if !ok {
			key = unkeyedNS + keySep + strconv.Itoa(i)
		}

		idx, seen := slots[key]
		if !seen {
			slots[key] = len(winners)
			winners = append(winners, rec)
			continue
		}
		if rec.Time(tsField).Compare(winners[idx].Time(tsField)) >= 0 {
			winners[idx] = rec
		}
	}

	slices.SortStableFunc(winners, func(a, b Record) int {
		return b.Time(tsField).Compare(a.Time(tsField))
	})
	return ReconciledSet(winners)
}
