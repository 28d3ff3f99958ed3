package deals

import (
	"encoding/json"
	"sort"

	"github.com/boltdb/bolt"
	"golang.org/x/xerrors"

	"github.com/dealops/dealflow/config"
	"github.com/dealops/dealflow/internal/common"
	"github.com/dealops/dealflow/misc"
)

// Events pushed through the notifier after committed mutations.
const (
	EvNewBid         = "new_bid"
	EvBidUpdated     = "bid_updated"
	EvBidAccepted    = "bid_accepted"
	EvBidRejected    = "bid_rejected"
	EvNewNegotiation = "new_negotiation"
)

// Notifier is the fire-and-forget push channel. Implementations must never
// block or fail the caller; dropped deliveries are acceptable since clients
// can always re-read persisted state.
type Notifier interface {
	Emit(userId, event string, payload interface{})
}

// BidGate is the pluggable billing precondition on bid placement. The
// default gate admits everyone; the billing collaborator supplies the real
// policy.
type BidGate interface {
	AllowBid(responderId string) error
}

type allowAll struct{}

func (allowAll) AllowBid(string) error { return nil }

func AllowAll() BidGate { return allowAll{} }

// SubscriberFunc adapts a subscription lookup into a BidGate that rejects
// unsubscribed responders.
type SubscriberFunc func(responderId string) bool

func (f SubscriberFunc) AllowBid(responderId string) error {
	if !f(responderId) {
		return xerrors.Errorf("responder %s has no active subscription: %w", responderId, ErrForbidden)
	}
	return nil
}

// Engine owns the deal/bid/negotiation lifecycle. All writes go through
// bolt Update transactions; bolt's single writer makes every closure a
// serializable unit of work, which is exactly what Accept relies on.
type Engine struct {
	db     *bolt.DB
	cfg    *config.Config
	notify Notifier
	gate   BidGate

	Registry *Registry
	Ledger   *Ledger
	Log      *Log
}

func New(db *bolt.DB, cfg *config.Config, notify Notifier, gate BidGate) *Engine {
	if gate == nil {
		gate = AllowAll()
	}
	e := &Engine{db: db, cfg: cfg, notify: notify, gate: gate}
	e.Registry = &Registry{e}
	e.Ledger = &Ledger{e}
	e.Log = &Log{e}
	return e
}

func (e *Engine) emit(userId, event string, payload interface{}) {
	if e.notify != nil && userId != "" {
		e.notify.Emit(userId, event, payload)
	}
}

func (e *Engine) getDealTx(tx *bolt.Tx, dealId string) (*common.Deal, error) {
	var d common.Deal
	if misc.GetTxJson(tx, e.cfg.Bucket.Deal, dealId, &d) == nil && d.Id != "" {
		return &d, nil
	}
	return nil, xerrors.Errorf("deal %s: %w", dealId, ErrNotFound)
}

func (e *Engine) getBidTx(tx *bolt.Tx, bidId string) (*common.Bid, error) {
	var b common.Bid
	if misc.GetTxJson(tx, e.cfg.Bucket.Bid, bidId, &b) == nil && b.Id != "" {
		return &b, nil
	}
	return nil, xerrors.Errorf("bid %s: %w", bidId, ErrNotFound)
}

func (e *Engine) saveDealTx(tx *bolt.Tx, d *common.Deal) error {
	return misc.PutTxJson(tx, e.cfg.Bucket.Deal, d.Id, d)
}

func (e *Engine) saveBidTx(tx *bolt.Tx, b *common.Bid) error {
	return misc.PutTxJson(tx, e.cfg.Bucket.Bid, b.Id, b)
}

// bidsForDealTx returns every bid placed against the deal, in id order.
func (e *Engine) bidsForDealTx(tx *bolt.Tx, dealId string) (out []*common.Bid, err error) {
	err = misc.GetBucket(tx, e.cfg.Bucket.Bid).ForEach(func(k, v []byte) error {
		var b common.Bid
		if err := json.Unmarshal(v, &b); err != nil {
			return err
		}
		if b.DealId == dealId {
			out = append(out, &b)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return lessId(out[i].Id, out[j].Id) })
	return
}

// connectionForDealTx returns the deal's connection, nil when unresolved.
func (e *Engine) connectionForDealTx(tx *bolt.Tx, dealId string) (cn *common.Connection) {
	misc.GetBucket(tx, e.cfg.Bucket.Connection).ForEach(func(k, v []byte) error {
		var c common.Connection
		if json.Unmarshal(v, &c) == nil && c.DealId == dealId {
			cn = &c
		}
		return nil
	})
	return
}

// lessId compares the decimal ids handed out by the index bucket without
// parsing them; no leading zeros means shorter is always smaller.
func lessId(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
