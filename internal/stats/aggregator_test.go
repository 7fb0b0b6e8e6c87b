package stats

import (
	"testing"
)

func TestRecordCountsEveryMaterial(t *testing.T) {
	t.Parallel()
	a := NewAggregator()

	a.Record([]Reading{
		{Name: "Platinum", Proportion: 72.3},
		{Name: "Iron", Proportion: 3.1},
	}, "Platinum")
	a.Record([]Reading{
		{Name: "Platinum", Proportion: 10},
	}, "")

	sum := a.Snapshot()
	if sum.Prospected != 2 || sum.Announced != 1 {
		t.Fatalf("prospected=%d announced=%d, want 2 and 1", sum.Prospected, sum.Announced)
	}

	pt := sum.Materials["Platinum"]
	if pt.Found != 2 || pt.Notable != 1 {
		t.Fatalf("Platinum found=%d notable=%d, want 2 and 1", pt.Found, pt.Notable)
	}
	if pt.MaxProportion != 72.3 {
		t.Fatalf("Platinum max = %v", pt.MaxProportion)
	}
	if got := pt.Average(); got != (72.3+10)/2 {
		t.Fatalf("Platinum average = %v", got)
	}

	// Below-threshold materials are counted too.
	fe := sum.Materials["Iron"]
	if fe.Found != 1 || fe.Notable != 0 {
		t.Fatalf("Iron found=%d notable=%d, want 1 and 0", fe.Found, fe.Notable)
	}
}

func TestRecordMotherlode(t *testing.T) {
	t.Parallel()
	a := NewAggregator()
	a.Record([]Reading{{Name: "Alexandrite", Proportion: 0, Motherlode: true}}, "Alexandrite")

	if got := a.Snapshot().Materials["Alexandrite"].Motherlodes; got != 1 {
		t.Fatalf("motherlodes = %d, want 1", got)
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	t.Parallel()
	a := NewAggregator()
	a.Record([]Reading{{Name: "Gold", Proportion: 20}}, "")

	sum := a.Snapshot()
	sum.Materials["Gold"] = MaterialStats{Found: 99}
	sum.Materials["Injected"] = MaterialStats{Found: 1}

	again := a.Snapshot()
	if again.Materials["Gold"].Found != 1 {
		t.Fatal("mutating a snapshot leaked into the aggregator")
	}
	if _, ok := again.Materials["Injected"]; ok {
		t.Fatal("snapshot map is shared with the aggregator")
	}
}

func TestResetReturnsPriorAndStartsFresh(t *testing.T) {
	t.Parallel()
	a := NewAggregator()
	a.Record([]Reading{{Name: "Platinum", Proportion: 60}}, "Platinum")

	prior := a.Reset()
	if prior.Prospected != 1 || prior.Materials["Platinum"].Found != 1 {
		t.Fatalf("prior = %+v, want the pre-reset counters", prior)
	}

	fresh := a.Snapshot()
	if fresh.Prospected != 0 || fresh.Announced != 0 || len(fresh.Materials) != 0 {
		t.Fatalf("post-reset snapshot = %+v, want zeroes", fresh)
	}
	if !fresh.SessionStart.After(prior.SessionStart) && !fresh.SessionStart.Equal(prior.SessionStart) {
		t.Fatal("reset did not restart the session clock")
	}
}
