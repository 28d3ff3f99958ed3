package deals

import (
	"encoding/json"
	"time"

	"github.com/boltdb/bolt"
	"golang.org/x/xerrors"

	"github.com/dealops/dealflow/internal/auth"
	"github.com/dealops/dealflow/internal/common"
	"github.com/dealops/dealflow/misc"
)

// Registry owns deal rows and their status transitions.
type Registry struct {
	*Engine
}

// Create validates the offer union and stores the deal as open.
func (r *Registry) Create(requester *auth.User, d *common.Deal) (*common.Deal, error) {
	if !auth.CanCreateDeal(requester.Type) {
		return nil, xerrors.Errorf("only requesters may post deals: %w", ErrForbidden)
	}
	if err := d.Offer.Validate(); err != nil {
		return nil, xerrors.Errorf("%v: %w", err, ErrBadRequest)
	}
	now := int32(time.Now().Unix())
	if d.Expires != 0 && d.Expires <= now {
		return nil, xerrors.Errorf("expiry is in the past: %w", ErrBadRequest)
	}

	if err := r.db.Update(func(tx *bolt.Tx) (err error) {
		if d.Id, err = misc.GetNextIndex(tx, r.cfg.Bucket.Deal); err != nil {
			return err
		}
		d.RequesterId = requester.Id
		d.Status = common.DealOpen
		d.Created = now
		return r.saveDealTx(tx, d)
	}); err != nil {
		return nil, err
	}
	return d, nil
}

// Get applies the read-path visibility policy. Requesters never learn that
// another requester's deal exists, so a foreign deal reads as not found.
func (r *Registry) Get(dealId string, viewer *auth.User) (out *common.Deal, err error) {
	err = r.db.View(func(tx *bolt.Tx) error {
		d, err := r.getDealTx(tx, dealId)
		if err != nil {
			return err
		}
		out, err = r.viewTx(tx, d, viewer)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Registry) viewTx(tx *bolt.Tx, d *common.Deal, viewer *auth.User) (*common.Deal, error) {
	switch viewer.Type {
	case auth.AdminScope:
		return d, nil
	case auth.RequesterScope:
		if d.RequesterId != viewer.Id {
			return nil, xerrors.Errorf("deal %s: %w", d.Id, ErrNotFound)
		}
		return d, nil
	case auth.ResponderScope:
		if d.Status == common.DealAccepted {
			// Owner identity is revealed only to the winning responder.
			if cn := r.connectionForDealTx(tx, d.Id); cn != nil && cn.ResponderId == viewer.Id {
				return d, nil
			}
			return nil, xerrors.Errorf("deal %s: %w", d.Id, ErrNotFound)
		}
		if d.Status == common.DealOpen || d.Status == common.DealInNegotiation {
			return d.Redacted(), nil
		}
		return nil, xerrors.Errorf("deal %s: %w", d.Id, ErrNotFound)
	}
	return nil, xerrors.Errorf("deal %s: %w", d.Id, ErrForbidden)
}

// ListOpen is the responder browse surface: biddable deals, owner redacted.
// Requesters have no business browsing each other's postings, so anyone but
// a responder or admin is refused outright.
func (r *Registry) ListOpen(viewer *auth.User) (out []*common.Deal, err error) {
	if viewer.Type != auth.ResponderScope && viewer.Type != auth.AdminScope {
		return nil, xerrors.Errorf("open deals: %w", ErrForbidden)
	}
	now := int32(time.Now().Unix())
	err = r.db.View(func(tx *bolt.Tx) error {
		return misc.GetBucket(tx, r.cfg.Bucket.Deal).ForEach(func(k, v []byte) error {
			var d common.Deal
			if err := json.Unmarshal(v, &d); err != nil {
				return err
			}
			if d.Biddable(now) {
				out = append(out, d.Redacted())
			}
			return nil
		})
	})
	return
}

// ListByRequester returns the caller's own deals, full detail.
func (r *Registry) ListByRequester(requester *auth.User) (out []*common.Deal, err error) {
	err = r.db.View(func(tx *bolt.Tx) error {
		return misc.GetBucket(tx, r.cfg.Bucket.Deal).ForEach(func(k, v []byte) error {
			var d common.Deal
			if err := json.Unmarshal(v, &d); err != nil {
				return err
			}
			if d.RequesterId == requester.Id {
				out = append(out, &d)
			}
			return nil
		})
	})
	return
}

// transitionOnFirstBidTx idempotently advances open → inNegotiation. The
// deal passed in is mutated and saved.
func (r *Registry) transitionOnFirstBidTx(tx *bolt.Tx, d *common.Deal) error {
	switch d.Status {
	case common.DealInNegotiation:
		return nil
	case common.DealOpen:
		d.Status = common.DealInNegotiation
		return r.saveDealTx(tx, d)
	}
	return xerrors.Errorf("deal %s is %s: %w", d.Id, d.Status, ErrConflict)
}

// Cancel is the owner-only side exit from open/inNegotiation. Responders
// with live bids are told their bid is now moot.
func (r *Registry) Cancel(dealId string, caller *auth.User) (*common.Deal, error) {
	var (
		out  *common.Deal
		dead []*common.Bid
	)
	if err := r.db.Update(func(tx *bolt.Tx) error {
		d, err := r.getDealTx(tx, dealId)
		if err != nil {
			return err
		}
		if !auth.CanCancelDeal(caller.Type, d.RequesterId == caller.Id) {
			return xerrors.Errorf("deal %s: %w", dealId, ErrForbidden)
		}
		if d.Status != common.DealOpen && d.Status != common.DealInNegotiation {
			return xerrors.Errorf("deal %s is %s: %w", dealId, d.Status, ErrConflict)
		}
		d.Status = common.DealCancelled
		if err := r.saveDealTx(tx, d); err != nil {
			return err
		}
		bids, err := r.bidsForDealTx(tx, dealId)
		if err != nil {
			return err
		}
		for _, b := range bids {
			if b.Status.Live() {
				dead = append(dead, b)
			}
		}
		out = d
		return nil
	}); err != nil {
		return nil, err
	}

	for _, b := range dead {
		r.emit(b.ResponderId, EvBidUpdated, b)
	}
	return out, nil
}

// Close is the administrative override out of any non-terminal state.
func (r *Registry) Close(dealId string, caller *auth.User) (*common.Deal, error) {
	if !auth.CanCloseDeal(caller.Type) {
		return nil, xerrors.Errorf("deal %s: %w", dealId, ErrForbidden)
	}
	var out *common.Deal
	if err := r.db.Update(func(tx *bolt.Tx) error {
		d, err := r.getDealTx(tx, dealId)
		if err != nil {
			return err
		}
		if d.Status.Terminal() {
			return xerrors.Errorf("deal %s is %s: %w", dealId, d.Status, ErrConflict)
		}
		d.Status = common.DealClosed
		out = d
		return r.saveDealTx(tx, d)
	}); err != nil {
		return nil, err
	}
	return out, nil
}
