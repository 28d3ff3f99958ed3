package common

// A Bid is a responder's proposal against exactly one deal. Its offer
// mirrors the shape of the parent deal's offer.
type Bid struct {
	Id          string `json:"id"`
	DealId      string `json:"dealId"`
	ResponderId string `json:"responderId"`

	Status BidStatus `json:"status"`

	Offer *Offer `json:"offer"`

	Created int32 `json:"created,omitempty"`
	Updated int32 `json:"updated,omitempty"`
}

type BidStatus string

const (
	BidPending   BidStatus = "pending"
	BidCountered BidStatus = "countered"
	BidAccepted  BidStatus = "accepted"
	BidRejected  BidStatus = "rejected"
	BidWithdrawn BidStatus = "withdrawn"
)

func (s BidStatus) Terminal() bool {
	switch s {
	case BidAccepted, BidRejected, BidWithdrawn:
		return true
	}
	return false
}

// Live means the bid still occupies the responder's one-active-bid slot on
// the deal and is eligible for negotiation or acceptance.
func (s BidStatus) Live() bool {
	return s == BidPending || s == BidCountered
}
