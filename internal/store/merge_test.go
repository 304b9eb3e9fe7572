package store

import (
	"reflect"
	"testing"
	"time"
)

func tstamp(h int) time.Time {
	return time.Date(2024, 6, 1, h, 0, 0, 0, time.UTC)
}

func tableItems(t *testing.T, tbl *Table[rec]) []rec {
	t.Helper()
	items, err := tbl.Items()
	if err != nil {
		t.Fatalf("Items() failed: %v", err)
	}
	return items
}

func TestMergeInsertsAbsentIds(t *testing.T) {
	tbl := openTestTable(t)
	stats, err := tbl.Merge([]rec{
		{Id: "0101", Body: "a", Touched: tstamp(1)},
		{Id: "8202", Body: "b", Touched: tstamp(1)},
	})
	if err != nil {
		t.Fatalf("Merge() failed: %v", err)
	}
	if stats.Inserted != 2 || stats.Updated != 0 || stats.Unchanged != 0 {
		t.Errorf("stats = %+v, want 2 inserted", stats)
	}
	if got := len(tableItems(t, tbl)); got != 2 {
		t.Errorf("table has %d records, want 2", got)
	}
}

func TestMergeIdempotent(t *testing.T) {
	tbl := openTestTable(t)
	batch := []rec{
		{Id: "0101", Body: "a", Touched: tstamp(1)},
		{Id: "8202", Body: "b", Touched: tstamp(2)},
		{Id: "ff03", Body: "c", Touched: tstamp(3)},
	}

	if _, err := tbl.Merge(batch); err != nil {
		t.Fatalf("first Merge() failed: %v", err)
	}
	once := tableItems(t, tbl)

	stats, err := tbl.Merge(batch)
	if err != nil {
		t.Fatalf("second Merge() failed: %v", err)
	}
	twice := tableItems(t, tbl)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("table changed on replay:\nonce:  %+v\ntwice: %+v", once, twice)
	}
	if stats.Inserted != 0 || stats.Updated != 0 || stats.Unchanged != 3 {
		t.Errorf("replay stats = %+v, want all unchanged", stats)
	}
}

func TestMergeOrderIndependent(t *testing.T) {
	// 4404 carries the same timestamp with different field values on
	// each side, the shape two replicas produce when upstream edits a
	// field without bumping its timestamp.
	a := []rec{
		{Id: "0101", Body: "from-a", Touched: tstamp(1)},
		{Id: "4404", Body: "tie-a", Touched: tstamp(3)},
		{Id: "8202", Body: "shared", Touched: tstamp(2)},
	}
	b := []rec{
		{Id: "4404", Body: "tie-b", Touched: tstamp(3)},
		{Id: "8202", Body: "shared-newer", Touched: tstamp(5)},
		{Id: "ff03", Body: "from-b", Touched: tstamp(1)},
	}

	ab := openTestTable(t)
	for _, batch := range [][]rec{a, b} {
		if _, err := ab.Merge(batch); err != nil {
			t.Fatalf("Merge() failed: %v", err)
		}
	}
	ba := openTestTable(t)
	for _, batch := range [][]rec{b, a} {
		if _, err := ba.Merge(batch); err != nil {
			t.Fatalf("Merge() failed: %v", err)
		}
	}

	if got, want := tableItems(t, ab), tableItems(t, ba); !reflect.DeepEqual(got, want) {
		t.Errorf("merge order changed outcome:\na,b: %+v\nb,a: %+v", got, want)
	}

	tied, err := ab.Get("4404")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if tied.Body != "tie-b" {
		t.Errorf("tied record Body = %q, want %q", tied.Body, "tie-b")
	}
}

func TestMergeDoesNotRegressTimestamp(t *testing.T) {
	tbl := openTestTable(t)
	if _, err := tbl.Merge([]rec{{Id: "0101", Body: "new", Touched: tstamp(9)}}); err != nil {
		t.Fatalf("Merge() failed: %v", err)
	}
	// A stale candidate must not move Touched backward or clobber fields.
	if _, err := tbl.Merge([]rec{{Id: "0101", Body: "stale", Touched: tstamp(1)}}); err != nil {
		t.Fatalf("Merge() failed: %v", err)
	}
	got, err := tbl.Get("0101")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if !got.Touched.Equal(tstamp(9)) {
		t.Errorf("Touched regressed to %v", got.Touched)
	}
	if got.Body != "new" {
		t.Errorf("Body = %q, stale candidate clobbered fresh value", got.Body)
	}
}

func TestMergeEmptyCandidateFieldPreservesValue(t *testing.T) {
	tbl := openTestTable(t)
	if _, err := tbl.Merge([]rec{{Id: "0101", Body: "kept", Touched: tstamp(1)}}); err != nil {
		t.Fatalf("Merge() failed: %v", err)
	}
	if _, err := tbl.Merge([]rec{{Id: "0101", Touched: tstamp(2)}}); err != nil {
		t.Fatalf("Merge() failed: %v", err)
	}
	got, err := tbl.Get("0101")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Body != "kept" {
		t.Errorf("Body = %q, empty candidate field erased value", got.Body)
	}
}

func TestMergeRejectsEmptyID(t *testing.T) {
	tbl := openTestTable(t)
	if _, err := tbl.Merge([]rec{{Body: "no id"}}); err == nil {
		t.Error("Merge() accepted a candidate with an empty id")
	}
}
