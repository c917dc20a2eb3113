package recon

import "testing"

func campaignSet() ReconciledSet {
	mk := func(campaign string, c Code) Record {
		return Record{Fields: map[string]Value{
			"campaign": TextValue(campaign),
			"status":   StatusValue(c),
		}}
	}
	return ReconciledSet{
		mk("Natal", Sent),
		mk("Natal", Sent),
		mk("Natal", Error),
		mk("Páscoa", Pending),
		mk("", Sent),
		mk("Natal", Unknown),
	}
}

func TestAggregate(t *testing.T) {
	set := campaignSet()
	got := Aggregate(set, ByField("campaign"), StatusOf("status"), Sent)

	natal := got["Natal"]
	if natal == nil {
		t.Fatal("missing Natal group")
	}
	if natal.Total != 4 || natal.Counters[Sent] != 2 || natal.Counters[Error] != 1 || natal.Counters[Unknown] != 1 {
		t.Errorf("Natal = %+v", natal)
	}
	if natal.ProgressRatio != 50 {
		t.Errorf("Natal ratio = %d, want 50", natal.ProgressRatio)
	}
	if got["Páscoa"].ProgressRatio != 0 {
		t.Errorf("Páscoa ratio = %d", got["Páscoa"].ProgressRatio)
	}
	if got[UnknownGroup] == nil || got[UnknownGroup].Total != 1 {
		t.Errorf("empty campaign should roll up under %q: %+v", UnknownGroup, got[UnknownGroup])
	}
	if _, ok := natal.Counters[Pending]; ok {
		t.Error("unobserved codes should not appear in counters")
	}
}

func TestAggregateConservation(t *testing.T) {
	set := campaignSet()
	got := Aggregate(set, ByField("campaign"), StatusOf("status"), Sent)

	total := 0
	for _, r := range got {
		sum := 0
		for _, n := range r.Counters {
			sum += n
		}
		if sum != r.Total {
			t.Errorf("group %q: counters sum to %d, total %d", r.Group, sum, r.Total)
		}
		total += r.Total
	}
	if total != len(set) {
		t.Errorf("rollup totals = %d, want %d", total, len(set))
	}
}

func TestAggregateEmpty(t *testing.T) {
	got := Aggregate(nil, ByField("campaign"), StatusOf("status"), Sent)
	if len(got) != 0 {
		t.Errorf("expected no groups, got %d", len(got))
	}
}

func TestRatio(t *testing.T) {
	tests := []struct{ part, total, want int }{
		{0, 0, 0},
		{3, 0, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 2, 50},
		{5, 5, 100},
	}
	for _, tt := range tests {
		if got := Ratio(tt.part, tt.total); got != tt.want {
			t.Errorf("Ratio(%d, %d) = %d, want %d", tt.part, tt.total, got, tt.want)
		}
	}
}

func TestSortRollups(t *testing.T) {
	got := SortRollups(map[string]*Rollup{
		"b": {Group: "b", Total: 2},
		"a": {Group: "a", Total: 2},
		"c": {Group: "c", Total: 5},
	})
	want := []string{"c", "a", "b"}
	for i, r := range got {
		if r.Group != want[i] {
			t.Fatalf("order[%d] = %q, want %q", i, r.Group, want[i])
		}
	}
}
