package models

// DiscountType distinguishes the optional order-level discount a manager
// applies at checkout. Per-product promos are separate (see Promotion).
type DiscountType string

const (
	DiscountTypeNone    DiscountType = "none"
	DiscountTypeAmount  DiscountType = "amount"
	DiscountTypePercent DiscountType = "percent"
)

// PromoScope declares how widely a promotion applies: one product, every
// product sold at a branch, or every product of the business.
type PromoScope string

const (
	PromoScopeProduct  PromoScope = "product"
	PromoScopeBranch   PromoScope = "branch"
	PromoScopeBusiness PromoScope = "business"
)

// specificity orders scopes for tie-breaking: product > branch > business.
func (s PromoScope) specificity() int {
	switch s {
	case PromoScopeProduct:
		return 3
	case PromoScopeBranch:
		return 2
	case PromoScopeBusiness:
		return 1
	default:
		return 0
	}
}
