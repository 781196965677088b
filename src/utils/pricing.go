package utils

import (
	"errors"
	"hbs/src/models"
	"hbs/src/types"
	"time"
)

type PricingInput struct {
	NightlyPrice    int64
	CheckIn         time.Time
	CheckOut        time.Time
	DiscountPercent int
	PromoCode       *string
	ServiceFee      int64
}

// ComputePricing derives the frozen cost breakdown for a stay. Pure function:
// no clock reads, no I/O; identical inputs always produce identical output.
func ComputePricing(in PricingInput) (*types.PricingBreakdown, error) {
	if in.NightlyPrice < 0 {
		return nil, errors.New("nightly price must not be negative")
	}
	if in.DiscountPercent < 0 || in.DiscountPercent > 100 {
		return nil, types.ErrInvalidDiscount
	}
	nights, err := NightsBetween(in.CheckIn, in.CheckOut)
	if err != nil {
		return nil, err
	}
	baseTotal := in.NightlyPrice * nights
	var discountAmount int64
	if in.DiscountPercent > 0 {
		// round half up on the minor-unit scale
		discountAmount = (baseTotal*int64(in.DiscountPercent) + 50) / 100
	}
	subtotal := baseTotal - discountAmount
	breakdown := &types.PricingBreakdown{
		NightlyPrice:    in.NightlyPrice,
		Nights:          nights,
		BaseTotal:       baseTotal,
		DiscountPercent: in.DiscountPercent,
		DiscountAmount:  discountAmount,
		Subtotal:        subtotal,
		ServiceFee:      in.ServiceFee,
		GrandTotal:      subtotal + in.ServiceFee,
		PromoCode:       in.PromoCode,
	}
	return breakdown, nil
}

// EffectiveDiscount returns the listing's discount percent if the given moment
// falls inside its validity window. Either bound may be open.
func EffectiveDiscount(listing *models.Listing, at time.Time) int {
	if listing.DiscountPercent <= 0 {
		return 0
	}
	if listing.DiscountStart != nil && at.Before(*listing.DiscountStart) {
		return 0
	}
	if listing.DiscountEnd != nil && at.After(*listing.DiscountEnd) {
		return 0
	}
	return listing.DiscountPercent
}
