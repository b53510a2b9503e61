package models

import (
	"context"
	"errors"
	"time"

	"github.com/warungtech/pos_backend/config"
	"github.com/warungtech/pos_backend/utils"
)

// activeAt reports whether the instant falls inside the promotion's
// [start_date, end_date] window. The end date covers through end of day.
// Day boundaries are taken in the stored dates' location so a differently
// zoned server clock cannot shift the window edges.
func (p *Promotion) activeAt(now time.Time) bool {
	loc := p.StartDate.Location()
	now = now.In(loc)
	end := p.EndDate.In(loc)
	start := time.Date(p.StartDate.Year(), p.StartDate.Month(), p.StartDate.Day(), 0, 0, 0, 0, loc)
	endExclusive := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
	return !now.Before(start) && now.Before(endExclusive)
}

// PickPromo selects the winning promotion among candidates for one instant.
// Pure and deterministic: date-window filter, then most specific scope
// (product > branch > business), then latest start date, then lowest id.
// Returns nil when nothing is active.
func PickPromo(candidates []Promotion, now time.Time) *Promotion {
	var winner *Promotion
	for i := range candidates {
		c := &candidates[i]
		if !c.activeAt(now) {
			continue
		}
		if winner == nil {
			winner = c
			continue
		}
		if beats(c, winner) {
			winner = c
		}
	}
	return winner
}

func beats(a, b *Promotion) bool {
	if a.Scope.specificity() != b.Scope.specificity() {
		return a.Scope.specificity() > b.Scope.specificity()
	}
	if !a.StartDate.Equal(b.StartDate) {
		return a.StartDate.After(b.StartDate)
	}
	return a.ID < b.ID
}

// ResolvePromoForProduct finds the discount in effect for a product on a
// cashier screen right now. The branch gives scope context: branch-wide and
// business-wide promotions reach the product through it. No active candidate,
// a product sold at no branch, or an exhausted usage limit all resolve to
// (nil, nil) - no discount, never a business error. Pure read, no writes.
func ResolvePromoForProduct(ctx context.Context, productId int, branchId int) (*Promotion, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := utils.ValidateResourceId[Product](ctx, businessId, productId); err != nil {
		return nil, errors.New("product not found")
	}

	owned, err := productOwnedByBranch(ctx, productId, branchId)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, nil
	}

	db := config.GetDB()
	var candidates []Promotion
	err = db.WithContext(ctx).
		Where("business_id = ? AND is_active = ?", businessId, true).
		Where(
			db.Where("scope = ? AND product_id = ?", PromoScopeProduct, productId).
				Or("scope = ? AND branch_id = ?", PromoScopeBranch, branchId).
				Or("scope = ?", PromoScopeBusiness),
		).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	// Drop candidates whose usage limit is already spent.
	eligible := candidates[:0]
	for i := range candidates {
		c := candidates[i]
		if c.UsageLimit != nil {
			used, err := c.usageCount(ctx)
			if err != nil {
				return nil, err
			}
			if used >= int64(*c.UsageLimit) {
				continue
			}
		}
		eligible = append(eligible, c)
	}

	return PickPromo(eligible, time.Now()), nil
}
