package node

import (
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		old, next State
		want      bool
	}{
		{Down, Up, false},
		{Down, Recovering, true},
		{Recovering, Up, true},
		{Joining, Up, true},
		{Up, Suspect, true},
		{Suspect, Up, true},
		{Maintenance, Down, false},
		{Maintenance, Up, true},
	}
	for _, c := range cases {
		if got := CanTransition(c.old, c.next); got != c.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", c.old, c.next, got, c.want)
		}
	}
}

func TestStateEligibility(t *testing.T) {
	if !Up.Eligible() || !Joining.Eligible() || !Recovering.Eligible() || !Suspect.Eligible() {
		t.Fatalf("expected Up/Joining/Recovering/Suspect to be eligible")
	}
	if Leaving.Eligible() || Down.Eligible() || Maintenance.Eligible() {
		t.Fatalf("expected Leaving/Down/Maintenance to be ineligible")
	}
}

func TestNewDefaultsWeightAndState(t *testing.T) {
	n := New(Config{ID: 1, Name: "n1"}, time.Unix(0, 0))
	if n.Weight != 1 {
		t.Fatalf("expected default weight 1, got %d", n.Weight)
	}
	if n.State != Joining {
		t.Fatalf("expected default state Joining, got %s", n.State)
	}
}
