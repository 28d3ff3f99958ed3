package common

// A Connection is the binding artifact created exactly once when a bid is
// accepted. Terms is a snapshot taken at acceptance time, never a live
// reference to the bid.
type Connection struct {
	Id          string `json:"id"`
	DealId      string `json:"dealId"`
	RequesterId string `json:"requesterId"`
	ResponderId string `json:"responderId"`

	Terms *Offer `json:"terms"`

	Created int32 `json:"created,omitempty"`
}

// Party reports whether the given user is one of the two sides.
func (cn *Connection) Party(userId string) bool {
	return cn.RequesterId == userId || cn.ResponderId == userId
}
