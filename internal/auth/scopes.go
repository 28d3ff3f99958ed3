package auth

type Scope string

const (
	InvalidScope   Scope = ""
	AdminScope     Scope = `admin`
	RequesterScope Scope = `requester`
	ResponderScope Scope = `responder`
)

func (s Scope) Valid() bool {
	switch s {
	case AdminScope, RequesterScope, ResponderScope:
		return true
	}
	return false
}

// The permission matrix lives below, one capability function per operation,
// so it can be unit-tested without any transport or storage in play. The
// ownership relation is always passed in explicitly by the caller.

// CanCreateDeal: only requesters post deals.
func CanCreateDeal(s Scope) bool {
	return s == RequesterScope
}

// CanCancelDeal: the owning requester may cancel their own deal.
func CanCancelDeal(s Scope, ownsDeal bool) bool {
	return s == RequesterScope && ownsDeal
}

// CanCloseDeal: force-close is an administrative override.
func CanCloseDeal(s Scope) bool {
	return s == AdminScope
}

// CanPlaceBid: only responders bid.
func CanPlaceBid(s Scope) bool {
	return s == ResponderScope
}

// CanEditBid covers amend and withdraw: the owning responder only.
func CanEditBid(s Scope, ownsBid bool) bool {
	return s == ResponderScope && ownsBid
}

// CanResolveBid covers accept and reject: the requester owning the parent
// deal only.
func CanResolveBid(s Scope, ownsDeal bool) bool {
	return s == RequesterScope && ownsDeal
}

// CanCounter: either side, but only on their own leg of the negotiation.
// A requester on deals they own, a responder on bids they own.
func CanCounter(s Scope, ownsDeal, ownsBid bool) bool {
	switch s {
	case RequesterScope:
		return ownsDeal
	case ResponderScope:
		return ownsBid
	}
	return false
}

// CanViewNegotiations is gated identically to CanCounter.
func CanViewNegotiations(s Scope, ownsDeal, ownsBid bool) bool {
	return CanCounter(s, ownsDeal, ownsBid)
}
