package deals

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/boltdb/bolt"
	"golang.org/x/xerrors"

	"github.com/dealops/dealflow/internal/auth"
	"github.com/dealops/dealflow/internal/common"
	"github.com/dealops/dealflow/misc"
)

// Log owns the append-only counter-offer history per bid.
type Log struct {
	*Engine
}

// Counter appends a negotiation row and flips the bid to countered. Either
// side may counter, each only on their own leg; the flip happens no matter
// which side authored it, since countered always means "awaiting the other
// party".
func (g *Log) Counter(bidId string, actor *auth.User, offer *common.Offer, message string) (*common.Negotiation, error) {
	if err := offer.Validate(); err != nil {
		return nil, xerrors.Errorf("%v: %w", err, ErrBadRequest)
	}

	var (
		neg   *common.Negotiation
		other string
	)
	if err := g.db.Update(func(tx *bolt.Tx) error {
		b, err := g.getBidTx(tx, bidId)
		if err != nil {
			return err
		}
		d, err := g.getDealTx(tx, b.DealId)
		if err != nil {
			return err
		}
		if !auth.CanCounter(actor.Type, d.RequesterId == actor.Id, b.ResponderId == actor.Id) {
			return xerrors.Errorf("bid %s: %w", bidId, ErrForbidden)
		}
		if b.Status.Terminal() {
			return xerrors.Errorf("bid %s is %s: %w", bidId, b.Status, ErrBadRequest)
		}
		if !offer.SameShape(d.Offer) {
			return xerrors.Errorf("counter must be a %s offer: %w", d.Offer.Type, ErrBadRequest)
		}

		id, err := misc.GetNextIndex(tx, g.cfg.Bucket.Negotiation)
		if err != nil {
			return err
		}
		fromRequester := actor.Type == auth.RequesterScope
		neg = &common.Negotiation{
			Id:            id,
			DealId:        d.Id,
			BidId:         b.Id,
			Offer:         offer,
			Message:       message,
			FromRequester: fromRequester,
			Created:       int32(time.Now().Unix()),
		}
		if err := misc.PutTxJson(tx, g.cfg.Bucket.Negotiation, id, neg); err != nil {
			return err
		}

		b.Status = common.BidCountered
		b.Updated = neg.Created
		if err := g.saveBidTx(tx, b); err != nil {
			return err
		}

		if fromRequester {
			other = b.ResponderId
		} else {
			other = d.RequesterId
		}
		return nil
	}); err != nil {
		return nil, err
	}

	g.emit(other, EvNewNegotiation, neg)
	return neg, nil
}

// History returns the bid's counter-offers in creation order, gated the
// same way as Counter.
func (g *Log) History(bidId string, viewer *auth.User) (out []*common.Negotiation, err error) {
	err = g.db.View(func(tx *bolt.Tx) error {
		b, err := g.getBidTx(tx, bidId)
		if err != nil {
			return err
		}
		d, err := g.getDealTx(tx, b.DealId)
		if err != nil {
			return err
		}
		if viewer.Type != auth.AdminScope &&
			!auth.CanViewNegotiations(viewer.Type, d.RequesterId == viewer.Id, b.ResponderId == viewer.Id) {
			return xerrors.Errorf("bid %s history: %w", bidId, ErrForbidden)
		}

		return misc.GetBucket(tx, g.cfg.Bucket.Negotiation).ForEach(func(k, v []byte) error {
			var n common.Negotiation
			if err := json.Unmarshal(v, &n); err != nil {
				return err
			}
			if n.BidId == bidId {
				out = append(out, &n)
			}
			return nil
		})
	})
	// Ids come from a monotonic counter, so id order is creation order.
	sort.Slice(out, func(i, j int) bool { return lessId(out[i].Id, out[j].Id) })
	return
}
