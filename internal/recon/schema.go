package recon

// Schema bundles everything the engine needs for one entity type.
type Schema struct {
	Entity    string
	Fields    FieldTable
	Key       KeySpec
	Timestamp string
	// Finalize applies entity rules to a freshly mapped record. It may only
	// touch the record it is given.
	Finalize func(*Record)
}

// Result is the outcome of one reconciliation cycle.
type Result struct {
	Entity  string        `json:"entity"`
	Input   int           `json:"input"`
	Dropped int           `json:"dropped"`
	Records ReconciledSet `json:"records"`
}

// Run maps, finalizes and reconciles raws with a UTC mapper.
func (s Schema) Run(raws []RawRecord) Result {
	return Mapper{}.Run(s, raws)
}

// Run maps every raw record with s, drops all-empty ones and reconciles the
// rest. A malformed record never aborts the batch.
func (m Mapper) Run(s Schema, raws []RawRecord) Result {
	res := Result{Entity: s.Entity, Input: len(raws)}
	recs := make([]Record, 0, len(raws))
	for _, raw := range raws {
		rec, ok := m.ToCanonical(raw, s.Fields)
		if !ok {
			res.Dropped++
			continue
		}
		rec.Entity = s.Entity
		if s.Finalize != nil {
			s.Finalize(&rec)
		}
		recs = append(recs, rec)
	}
	res.Records = Reconcile(recs, s.Key, s.Timestamp)
	if res.Records == nil {
		res.Records = ReconciledSet{}
	}
	return res
}
