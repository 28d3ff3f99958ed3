package common

// A Deal is a requester's posted, negotiable offer. Responders bid against
// it; exactly one bid may ever be accepted, at which point the deal is
// resolved into a Connection.
type Deal struct {
	Id          string `json:"id"`
	RequesterId string `json:"requesterId"`

	Status DealStatus `json:"status"`

	Offer *Offer `json:"offer"`
	Terms string `json:"terms,omitempty"` // Free-text requirements

	Expires int32 `json:"expires,omitempty"` // Timestamp. 0 means no expiry
	Created int32 `json:"created,omitempty"`
}

type DealStatus string

const (
	DealOpen          DealStatus = "open"
	DealInNegotiation DealStatus = "inNegotiation"
	DealAccepted      DealStatus = "accepted"
	DealCancelled     DealStatus = "cancelled"
	DealClosed        DealStatus = "closed"
)

func (s DealStatus) Terminal() bool {
	switch s {
	case DealAccepted, DealCancelled, DealClosed:
		return true
	}
	return false
}

// Biddable reports whether the deal can take bids at the given timestamp.
func (d *Deal) Biddable(now int32) bool {
	if d.Status != DealOpen && d.Status != DealInNegotiation {
		return false
	}
	if d.Expires != 0 && now >= d.Expires {
		return false
	}
	return true
}

// RedactedOwner is what responders see in place of the requester's identity
// until the deal is accepted and they are the winning party.
const RedactedOwner = "-"

// Redacted returns a copy safe for a responder who has not won the deal.
func (d *Deal) Redacted() *Deal {
	cp := *d
	cp.RequesterId = RedactedOwner
	return &cp
}
