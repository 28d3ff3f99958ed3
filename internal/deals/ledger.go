package deals

import (
	"time"

	"github.com/boltdb/bolt"
	"golang.org/x/xerrors"

	"github.com/dealops/dealflow/internal/auth"
	"github.com/dealops/dealflow/internal/common"
	"github.com/dealops/dealflow/misc"
)

// Ledger owns bid rows. Terminal transitions driven by the requester
// (accept/reject) live here too; accept delegates to the coordinator in
// accept.go, which is the only code path allowed to create a connection.
type Ledger struct {
	*Engine
}

// Place creates a pending bid against a biddable deal. A responder may hold
// only one live bid per deal; the check runs inside the same transaction as
// the insert, so two racing placements serialize and the second conflicts.
func (l *Ledger) Place(dealId string, responder *auth.User, offer *common.Offer) (*common.Bid, error) {
	if !auth.CanPlaceBid(responder.Type) {
		return nil, xerrors.Errorf("only responders may bid: %w", ErrForbidden)
	}
	if err := l.gate.AllowBid(responder.Id); err != nil {
		return nil, err
	}
	if err := offer.Validate(); err != nil {
		return nil, xerrors.Errorf("%v: %w", err, ErrBadRequest)
	}

	var (
		bid  *common.Bid
		deal *common.Deal
		now  = int32(time.Now().Unix())
	)
	if err := l.db.Update(func(tx *bolt.Tx) error {
		d, err := l.getDealTx(tx, dealId)
		if err != nil {
			return err
		}
		if !d.Biddable(now) {
			return xerrors.Errorf("deal %s is not accepting bids: %w", dealId, ErrBadRequest)
		}
		if !offer.SameShape(d.Offer) {
			return xerrors.Errorf("bid must be a %s offer: %w", d.Offer.Type, ErrBadRequest)
		}

		bids, err := l.bidsForDealTx(tx, dealId)
		if err != nil {
			return err
		}
		for _, b := range bids {
			if b.ResponderId == responder.Id && b.Status.Live() {
				return xerrors.Errorf("responder already has bid %s on deal %s: %w", b.Id, dealId, ErrConflict)
			}
		}

		id, err := misc.GetNextIndex(tx, l.cfg.Bucket.Bid)
		if err != nil {
			return err
		}
		bid = &common.Bid{
			Id:          id,
			DealId:      dealId,
			ResponderId: responder.Id,
			Status:      common.BidPending,
			Offer:       offer,
			Created:     now,
			Updated:     now,
		}
		if err := l.saveBidTx(tx, bid); err != nil {
			return err
		}

		deal = d
		return l.Registry.transitionOnFirstBidTx(tx, d)
	}); err != nil {
		return nil, err
	}

	l.emit(deal.RequesterId, EvNewBid, bid)
	return bid, nil
}

// Amend replaces the bid's offer while it is still pending or countered.
func (l *Ledger) Amend(bidId string, responder *auth.User, offer *common.Offer) (*common.Bid, error) {
	if err := offer.Validate(); err != nil {
		return nil, xerrors.Errorf("%v: %w", err, ErrBadRequest)
	}

	var (
		bid  *common.Bid
		deal *common.Deal
	)
	if err := l.db.Update(func(tx *bolt.Tx) error {
		b, err := l.getBidTx(tx, bidId)
		if err != nil {
			return err
		}
		if !auth.CanEditBid(responder.Type, b.ResponderId == responder.Id) {
			return xerrors.Errorf("bid %s: %w", bidId, ErrForbidden)
		}
		if !b.Status.Live() {
			return xerrors.Errorf("bid %s is %s: %w", bidId, b.Status, ErrBadRequest)
		}
		d, err := l.getDealTx(tx, b.DealId)
		if err != nil {
			return err
		}
		if !offer.SameShape(d.Offer) {
			return xerrors.Errorf("bid must be a %s offer: %w", d.Offer.Type, ErrBadRequest)
		}

		b.Offer = offer
		b.Updated = int32(time.Now().Unix())
		bid, deal = b, d
		return l.saveBidTx(tx, b)
	}); err != nil {
		return nil, err
	}

	l.emit(deal.RequesterId, EvBidUpdated, bid)
	return bid, nil
}

// Withdraw retires the responder's own bid. An accepted bid can never be
// withdrawn; the connection already exists.
func (l *Ledger) Withdraw(bidId string, responder *auth.User) (*common.Bid, error) {
	var (
		bid  *common.Bid
		deal *common.Deal
	)
	if err := l.db.Update(func(tx *bolt.Tx) error {
		b, err := l.getBidTx(tx, bidId)
		if err != nil {
			return err
		}
		if !auth.CanEditBid(responder.Type, b.ResponderId == responder.Id) {
			return xerrors.Errorf("bid %s: %w", bidId, ErrForbidden)
		}
		if b.Status.Terminal() {
			return xerrors.Errorf("bid %s is %s: %w", bidId, b.Status, ErrBadRequest)
		}
		d, err := l.getDealTx(tx, b.DealId)
		if err != nil {
			return err
		}

		b.Status = common.BidWithdrawn
		b.Updated = int32(time.Now().Unix())
		bid, deal = b, d
		return l.saveBidTx(tx, b)
	}); err != nil {
		return nil, err
	}

	l.emit(deal.RequesterId, EvBidUpdated, bid)
	return bid, nil
}

// Reject is the requester's terminal no. Unlike accept it touches a single
// row and needs no cross-row coordination.
func (l *Ledger) Reject(bidId string, requester *auth.User) (*common.Bid, error) {
	var bid *common.Bid
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
		if b.Status.Terminal() {
			return xerrors.Errorf("bid %s is %s: %w", bidId, b.Status, ErrBadRequest)
		}

		b.Status = common.BidRejected
		b.Updated = int32(time.Now().Unix())
		bid = b
		return l.saveBidTx(tx, b)
	}); err != nil {
		return nil, err
	}

	l.emit(bid.ResponderId, EvBidRejected, bid)
	return bid, nil
}

// Accept resolves the whole deal around the winning bid; see accept.go.
func (l *Ledger) Accept(bidId string, requester *auth.User) (*common.Connection, error) {
	return l.accept(bidId, requester)
}

// Get returns the bid to either party of it: the owning responder or the
// requester who owns the parent deal.
func (l *Ledger) Get(bidId string, viewer *auth.User) (bid *common.Bid, err error) {
	err = l.db.View(func(tx *bolt.Tx) error {
		b, err := l.getBidTx(tx, bidId)
		if err != nil {
			return err
		}
		d, err := l.getDealTx(tx, b.DealId)
		if err != nil {
			return err
		}
		if !l.mayViewBidTx(b, d, viewer) {
			return xerrors.Errorf("bid %s: %w", bidId, ErrForbidden)
		}
		bid = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bid, nil
}

// ListForDeal shows the requester every bid on their deal; a responder only
// ever sees their own.
func (l *Ledger) ListForDeal(dealId string, viewer *auth.User) (out []*common.Bid, err error) {
	err = l.db.View(func(tx *bolt.Tx) error {
		d, err := l.getDealTx(tx, dealId)
		if err != nil {
			return err
		}
		bids, err := l.bidsForDealTx(tx, dealId)
		if err != nil {
			return err
		}
		switch {
		case viewer.Type == auth.AdminScope,
			viewer.Type == auth.RequesterScope && d.RequesterId == viewer.Id:
			out = bids
		case viewer.Type == auth.ResponderScope:
			for _, b := range bids {
				if b.ResponderId == viewer.Id {
					out = append(out, b)
				}
			}
		default:
			return xerrors.Errorf("deal %s bids: %w", dealId, ErrForbidden)
		}
		return nil
	})
	return
}

func (l *Ledger) mayViewBidTx(b *common.Bid, d *common.Deal, viewer *auth.User) bool {
	switch viewer.Type {
	case auth.AdminScope:
		return true
	case auth.ResponderScope:
		return b.ResponderId == viewer.Id
	case auth.RequesterScope:
		return d.RequesterId == viewer.Id
	}
	return false
}
