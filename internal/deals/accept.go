package deals

import (
	"time"

	"github.com/boltdb/bolt"
	"golang.org/x/xerrors"

	"github.com/dealops/dealflow/internal/auth"
	"github.com/dealops/dealflow/internal/common"
	"github.com/dealops/dealflow/misc"
)

// accept resolves a deal by committing exactly one winning bid.
//
// Everything runs inside a single bolt Update. Bolt allows one writer at a
// time, so two racing accepts on the same deal serialize: the first commits,
// the second re-reads the flipped statuses and fails the eligibility check
// with Conflict, leaving no partial effect. The eligibility re-check below
// is therefore mandatory even though every caller has already read the bid.
func (l *Ledger) accept(bidId string, requester *auth.User) (*common.Connection, error) {
	var (
		cn     *common.Connection
		winner *common.Bid
		losers []*common.Bid
		now    = int32(time.Now().Unix())
	)
	if err := l.db.Update(func(tx *bolt.Tx) error {
		b, err := l.getBidTx(tx, bidId)
		if err != nil {
			return err
		}
		d, err := l.getDealTx(tx, b.DealId)
		if err != nil {
			return err
		}
		if !auth.CanResolveBid(requester.Type, d.RequesterId == requester.Id) {
			return xerrors.Errorf("bid %s: %w", bidId, ErrForbidden)
		}

		// The race window closes here: state may have moved since the
		// caller's last read.
		if !b.Status.Live() {
			return xerrors.Errorf("bid %s is %s: %w", bidId, b.Status, ErrConflict)
		}
		if d.Status.Terminal() {
			return xerrors.Errorf("deal %s is %s: %w", d.Id, d.Status, ErrConflict)
		}
		if existing := l.connectionForDealTx(tx, d.Id); existing != nil {
			return xerrors.Errorf("deal %s already resolved by connection %s: %w", d.Id, existing.Id, ErrConflict)
		}

		b.Status = common.BidAccepted
		b.Updated = now
		if err := l.saveBidTx(tx, b); err != nil {
			return err
		}

		d.Status = common.DealAccepted
		if err := l.saveDealTx(tx, d); err != nil {
			return err
		}

		rivals, err := l.bidsForDealTx(tx, d.Id)
		if err != nil {
			return err
		}
		for _, rb := range rivals {
			if rb.Id == b.Id || !rb.Status.Live() {
				continue
			}
			rb.Status = common.BidRejected
			rb.Updated = now
			if err := l.saveBidTx(tx, rb); err != nil {
				return err
			}
			losers = append(losers, rb)
		}

		id, err := misc.GetNextIndex(tx, l.cfg.Bucket.Connection)
		if err != nil {
			return err
		}
		// Terms are a deep copy; later bid edits can never reach a
		// consummated connection.
		cn = &common.Connection{
			Id:          id,
			DealId:      d.Id,
			RequesterId: d.RequesterId,
			ResponderId: b.ResponderId,
			Terms:       b.Offer.Clone(),
			Created:     now,
		}
		winner = b
		return misc.PutTxJson(tx, l.cfg.Bucket.Connection, id, cn)
	}); err != nil {
		return nil, err
	}

	// Push only after the commit; delivery is best effort.
	l.emit(winner.ResponderId, EvBidAccepted, cn)
	for _, rb := range losers {
		l.emit(rb.ResponderId, EvBidRejected, rb)
	}
	return cn, nil
}

// GetConnection returns the connection to either of its parties.
func (e *Engine) GetConnection(id string, viewer *auth.User) (cn *common.Connection, err error) {
	err = e.db.View(func(tx *bolt.Tx) error {
		var c common.Connection
		if misc.GetTxJson(tx, e.cfg.Bucket.Connection, id, &c) != nil || c.Id == "" {
			return xerrors.Errorf("connection %s: %w", id, ErrNotFound)
		}
		if viewer.Type != auth.AdminScope && !c.Party(viewer.Id) {
			return xerrors.Errorf("connection %s: %w", id, ErrForbidden)
		}
		cn = &c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cn, nil
}
