package common

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Offer is the negotiable payload carried by deals, bids and counter-offers.
// Exactly one variant must be set, matching the Type discriminant; anything
// else is rejected at the boundary by Validate so the business logic never
// has to re-check variant shape.
type Offer struct {
	Type OfferType `json:"dealType"`

	Tiered   *TieredPayout `json:"tiered,omitempty"`
	PerUnit  *UnitRebate   `json:"perUnit,omitempty"`
	RevShare *RevenueShare `json:"revShare,omitempty"`
}

type OfferType string

const (
	TieredPayoutOffer  OfferType = "tieredPayout"
	PerUnitRebateOffer OfferType = "perUnitRebate"
	RevenueShareOffer  OfferType = "revenueShare"
)

func (t OfferType) Valid() bool {
	switch t {
	case TieredPayoutOffer, PerUnitRebateOffer, RevenueShareOffer:
		return true
	}
	return false
}

// TieredPayout pays a flat amount per volume tier reached.
type TieredPayout struct {
	Tiers []Tier `json:"tiers"`
}

type Tier struct {
	Threshold decimal.Decimal `json:"threshold"` // Volume needed to unlock this tier
	Payout    decimal.Decimal `json:"payout"`
}

// UnitRebate pays a fixed rebate per unit moved.
type UnitRebate struct {
	Rebate decimal.Decimal `json:"rebate"`
	Unit   string          `json:"unit,omitempty"` // Optional label, e.g. "case"
}

// RevenueShare pays a percentage of attributed revenue.
type RevenueShare struct {
	Percent decimal.Decimal `json:"percent"`
}

var (
	ErrBadOfferType    = errors.New("unknown deal type")
	ErrOfferMismatch   = errors.New("offer fields do not match the deal type")
	ErrEmptyTiers      = errors.New("tiered payout needs at least one tier")
	ErrBadTier         = errors.New("tier thresholds and payouts must be positive and ascending")
	ErrBadRebate       = errors.New("rebate must be positive")
	ErrBadSharePercent = errors.New("share percent must be in (0, 100]")
)

var hundred = decimal.NewFromInt(100)

func (o *Offer) Validate() error {
	if o == nil || !o.Type.Valid() {
		return ErrBadOfferType
	}

	// The discriminant must select the one variant that is actually set.
	if o.set() != 1 {
		return ErrOfferMismatch
	}

	switch o.Type {
	case TieredPayoutOffer:
		if o.Tiered == nil {
			return ErrOfferMismatch
		}
		if len(o.Tiered.Tiers) == 0 {
			return ErrEmptyTiers
		}
		prev := decimal.Zero
		for _, t := range o.Tiered.Tiers {
			if !t.Threshold.IsPositive() || !t.Payout.IsPositive() {
				return ErrBadTier
			}
			if t.Threshold.LessThanOrEqual(prev) {
				return ErrBadTier
			}
			prev = t.Threshold
		}
	case PerUnitRebateOffer:
		if o.PerUnit == nil {
			return ErrOfferMismatch
		}
		if !o.PerUnit.Rebate.IsPositive() {
			return ErrBadRebate
		}
	case RevenueShareOffer:
		if o.RevShare == nil {
			return ErrOfferMismatch
		}
		if !o.RevShare.Percent.IsPositive() || o.RevShare.Percent.GreaterThan(hundred) {
			return ErrBadSharePercent
		}
	}
	return nil
}

func (o *Offer) set() (n int) {
	if o.Tiered != nil {
		n++
	}
	if o.PerUnit != nil {
		n++
	}
	if o.RevShare != nil {
		n++
	}
	return
}

// SameShape reports whether both offers carry the same discriminant. Bids
// must mirror the shape of the deal they target.
func (o *Offer) SameShape(other *Offer) bool {
	return o != nil && other != nil && o.Type == other.Type
}

// Clone deep-copies the offer. Connection snapshots use this so later bid
// edits can never reach back into a consummated connection.
func (o *Offer) Clone() *Offer {
	if o == nil {
		return nil
	}
	cp := &Offer{Type: o.Type}
	if o.Tiered != nil {
		tiers := make([]Tier, len(o.Tiered.Tiers))
		copy(tiers, o.Tiered.Tiers)
		cp.Tiered = &TieredPayout{Tiers: tiers}
	}
	if o.PerUnit != nil {
		pu := *o.PerUnit
		cp.PerUnit = &pu
	}
	if o.RevShare != nil {
		rs := *o.RevShare
		cp.RevShare = &rs
	}
	return cp
}
