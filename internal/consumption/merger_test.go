package consumption

import "testing"

func batchNumbers(batches []BatchRecord) []string {
	out := make([]string, len(batches))
	for i, b := range batches {
		if b.BatchNumber == nil {
			out[i] = "<nil>"
			continue
		}
		out[i] = *b.BatchNumber
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestMergeBatches_ObservedFillsGaps(t *testing.T) {
	authoritative := []BatchRecord{
		{BatchNumber: strp("B1"), Quantity: d("25"), UnitOfMeasurement: "kg"},
		{BatchNumber: strp("B2"), Quantity: d("30"), UnitOfMeasurement: "kg"},
	}
	observed := []BatchRecord{
		{BatchNumber: strp("B2"), Quantity: d("0")},
		{BatchNumber: strp("B3"), Quantity: d("0")},
		{BatchNumber: nil},
	}

	merged := MergeBatches(authoritative, observed)

	expected := []string{"B1", "B2", "B3", "<nil>"}
	if got := batchNumbers(merged); !equalStrings(got, expected) {
		t.Fatalf("Expected %v, got %v", expected, got)
	}
	if !merged[1].Quantity.Equal(d("30")) {
		t.Errorf("Expected authoritative quantity 30 for B2, got %s", merged[1].Quantity)
	}
}

func TestMergeBatches_SingleNullSentinel(t *testing.T) {
	authoritative := []BatchRecord{
		{BatchNumber: strp("B1"), Quantity: d("25")},
		{BatchNumber: nil, Quantity: d("5")},
		{BatchNumber: nil, Quantity: d("6")},
	}
	observed := []BatchRecord{
		{BatchNumber: nil, Quantity: d("0")},
		{BatchNumber: strp("B4")},
		{BatchNumber: nil},
	}

	merged := MergeBatches(authoritative, observed)

	nulls := 0
	for _, b := range merged {
		if b.BatchNumber == nil {
			nulls++
			// the authoritative null is visited first
			if !b.Quantity.Equal(d("5")) {
				t.Errorf("Expected authoritative null sentinel with quantity 5, got %s", b.Quantity)
			}
		}
	}
	if nulls != 1 {
		t.Errorf("Expected exactly 1 null batch, got %d", nulls)
	}

	expected := []string{"B1", "<nil>", "B4"}
	if got := batchNumbers(merged); !equalStrings(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

func TestMergeBatches_NullFirstSeenInObserved(t *testing.T) {
	merged := MergeBatches(
		[]BatchRecord{{BatchNumber: strp("B1")}},
		[]BatchRecord{{BatchNumber: strp("B2")}, {BatchNumber: nil}, {BatchNumber: strp("B3")}, {BatchNumber: nil}},
	)

	expected := []string{"B1", "B2", "<nil>", "B3"}
	if got := batchNumbers(merged); !equalStrings(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

func TestMergeBatches_EveryBatchOnce(t *testing.T) {
	merged := MergeBatches(
		[]BatchRecord{{BatchNumber: strp("B1")}, {BatchNumber: strp("B1")}},
		[]BatchRecord{{BatchNumber: strp("B1")}, {BatchNumber: strp("B2")}, {BatchNumber: strp("B2")}},
	)

	seen := map[string]int{}
	for _, n := range batchNumbers(merged) {
		seen[n]++
	}
	for n, count := range seen {
		if count != 1 {
			t.Errorf("Expected batch %s once, got %d", n, count)
		}
	}
	if len(seen) != 2 {
		t.Errorf("Expected 2 distinct batches, got %d", len(seen))
	}
}

func TestMergeBatches_Empty(t *testing.T) {
	if merged := MergeBatches(nil, nil); len(merged) != 0 {
		t.Errorf("Expected empty result, got %d", len(merged))
	}
}
