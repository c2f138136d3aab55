package orders

import "testing"

func TestTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusApproved, StatusRejected, false},
		{StatusApproved, StatusPending, false},
		{StatusApproved, StatusApproved, false}, // approve short-circuits, never re-transitions
		{StatusRejected, StatusApproved, false},
		{StatusRejected, StatusPending, false},
		{StatusRejected, StatusRejected, true}, // re-reject is a plain re-write
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.ok {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.ok)
		}
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusApproved, StatusRejected} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if Status("SHIPPED").Valid() {
		t.Error("unknown status must not validate")
	}
}
