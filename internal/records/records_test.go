package records

import "testing"

func TestNewRetiredPlayerAssignsDistinctIDs(t *testing.T) {
	a := NewRetiredPlayer("fido", 10, 0)
	b := NewRetiredPlayer("fido", 10, 0)

	if a.ID == b.ID {
		t.Fatal("expected two retirements of the same name/score to receive distinct ids")
	}
	if a.Name != "fido" || a.Score != 10 {
		t.Fatalf("unexpected record: %+v", a)
	}
}
