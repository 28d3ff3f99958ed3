package common

// A Negotiation is one immutable counter-offer entry in a bid's history.
// Rows are append-only; ids are assigned from a monotonic counter so
// creation order and id order agree.
type Negotiation struct {
	Id     string `json:"id"`
	DealId string `json:"dealId"`
	BidId  string `json:"bidId"`

	Offer   *Offer `json:"offer"`
	Message string `json:"message,omitempty"`

	// Which side authored the counter. The bid flips to countered either
	// way; the flag tells the reader whose move it now is.
	FromRequester bool `json:"fromRequester"`

	Created int32 `json:"created,omitempty"`
}
