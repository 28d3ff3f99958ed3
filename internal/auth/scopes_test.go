package auth

import "testing"

func TestCapabilities(t *testing.T) {
	tests := []struct {
		name string
		got  bool
		ex   bool
	}{
		{"requester creates deal", CanCreateDeal(RequesterScope), true},
		{"responder creates deal", CanCreateDeal(ResponderScope), false},
		{"admin creates deal", CanCreateDeal(AdminScope), false},

		{"owner cancels", CanCancelDeal(RequesterScope, true), true},
		{"non-owner cancels", CanCancelDeal(RequesterScope, false), false},
		{"responder cancels", CanCancelDeal(ResponderScope, true), false},
		{"admin cancels", CanCancelDeal(AdminScope, false), false},

		{"admin closes", CanCloseDeal(AdminScope), true},
		{"requester closes", CanCloseDeal(RequesterScope), false},

		{"responder bids", CanPlaceBid(ResponderScope), true},
		{"requester bids", CanPlaceBid(RequesterScope), false},

		{"bid owner edits", CanEditBid(ResponderScope, true), true},
		{"other responder edits", CanEditBid(ResponderScope, false), false},
		{"requester edits bid", CanEditBid(RequesterScope, true), false},

		{"deal owner resolves", CanResolveBid(RequesterScope, true), true},
		{"other requester resolves", CanResolveBid(RequesterScope, false), false},
		{"responder resolves", CanResolveBid(ResponderScope, true), false},

		{"requester counters own deal", CanCounter(RequesterScope, true, false), true},
		{"requester counters foreign deal", CanCounter(RequesterScope, false, false), false},
		{"responder counters own bid", CanCounter(ResponderScope, false, true), true},
		{"responder counters foreign bid", CanCounter(ResponderScope, false, false), false},
		{"admin counters", CanCounter(AdminScope, true, true), false},
	}

	for _, ts := range tests {
		if ts.got != ts.ex {
			t.Errorf("%s: wanted %v, got %v", ts.name, ts.ex, ts.got)
		}
	}
}

func TestScopeValid(t *testing.T) {
	for _, s := range []Scope{AdminScope, RequesterScope, ResponderScope} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	for _, s := range []Scope{InvalidScope, "broker", "root"} {
		if s.Valid() {
			t.Errorf("%q should be invalid", s)
		}
	}
}
