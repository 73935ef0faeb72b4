package models

import "testing"

func TestBidStatusHelpers(t *testing.T) {
	cases := []struct {
		status   BidStatus
		active   bool
		terminal bool
	}{
		{BidStatusPending, true, false},
		{BidStatusAccepted, true, true},
		{BidStatusRejected, false, true},
		{BidStatusWithdrawn, false, true},
	}
	for _, c := range cases {
		if got := IsActiveBidStatus(c.status); got != c.active {
			t.Errorf("IsActiveBidStatus(%s) = %v, want %v", c.status, got, c.active)
		}
		if got := IsTerminalBidStatus(c.status); got != c.terminal {
			t.Errorf("IsTerminalBidStatus(%s) = %v, want %v", c.status, got, c.terminal)
		}
	}
}
