package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warungtech/pos_backend/config"
	"github.com/warungtech/pos_backend/utils"
)

type Promotion struct {
	ID         int        `gorm:"primary_key" json:"id"`
	BusinessId string     `gorm:"index;not null" json:"business_id"`
	ProductId  int        `gorm:"index;not null;default:0" json:"product_id"`
	BranchId   int        `gorm:"index;not null;default:0" json:"branch_id"`
	Scope      PromoScope `gorm:"type:enum('product','branch','business');default:'product'" json:"scope"`
	Name       string     `gorm:"size:100;not null" json:"name" binding:"required"`
	// Inclusive calendar dates; EndDate covers through end of that day.
	StartDate       time.Time        `gorm:"not null" json:"start_date" binding:"required"`
	EndDate         time.Time        `gorm:"not null" json:"end_date" binding:"required"`
	PercentDiscount *decimal.Decimal `gorm:"type:decimal(20,2);default:null" json:"percent_discount"`
	PriceDiscount   *decimal.Decimal `gorm:"type:decimal(20,2);default:null" json:"price_discount"`
	UsageLimit      *int             `gorm:"default:null" json:"usage_limit"`
	IsActive        *bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewPromotion struct {
	ProductId       int              `json:"product_id"`
	BranchId        int              `json:"branch_id"`
	Scope           PromoScope       `json:"scope" binding:"required"`
	Name            string           `json:"name" binding:"required"`
	StartDate       time.Time        `json:"start_date" binding:"required"`
	EndDate         time.Time        `json:"end_date" binding:"required"`
	PercentDiscount *decimal.Decimal `json:"percent_discount"`
	PriceDiscount   *decimal.Decimal `json:"price_discount"`
	UsageLimit      *int             `json:"usage_limit"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewPromotion) validate(ctx context.Context, businessId string, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Promotion](ctx, businessId, id); err != nil {
			return err
		}
	}

	// at least one discount field must be set
	if input.PercentDiscount == nil && input.PriceDiscount == nil {
		return utils.NewValidationError("promotion requires a percent or price discount")
	}
	if input.PercentDiscount != nil {
		p := *input.PercentDiscount
		if p.IsNegative() || p.GreaterThan(decimal.NewFromInt(100)) {
			return utils.NewValidationError("percent discount must be between 0 and 100")
		}
	}
	if input.PriceDiscount != nil && input.PriceDiscount.IsNegative() {
		return utils.NewValidationError("price discount must not be negative")
	}
	if input.EndDate.Before(input.StartDate) {
		return utils.NewValidationError("promotion end date is before its start date")
	}
	if input.UsageLimit != nil && *input.UsageLimit <= 0 {
		return utils.NewValidationError("usage limit must be positive")
	}

	switch input.Scope {
	case PromoScopeProduct:
		if err := utils.ValidateResourceId[Product](ctx, businessId, input.ProductId); err != nil {
			return errors.New("product not found")
		}
	case PromoScopeBranch:
		if err := utils.ValidateResourceId[Branch](ctx, businessId, input.BranchId); err != nil {
			return errors.New("branch not found")
		}
	case PromoScopeBusiness:
		// applies to the whole business; no extra reference
	default:
		return utils.NewValidationError("invalid promotion scope")
	}

	return nil
}

func CreatePromotion(ctx context.Context, input *NewPromotion) (*Promotion, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	promotion := Promotion{
		BusinessId:      businessId,
		ProductId:       input.ProductId,
		BranchId:        input.BranchId,
		Scope:           input.Scope,
		Name:            input.Name,
		StartDate:       input.StartDate,
		EndDate:         input.EndDate,
		PercentDiscount: input.PercentDiscount,
		PriceDiscount:   input.PriceDiscount,
		UsageLimit:      input.UsageLimit,
		IsActive:        utils.NewTrue(),
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Create(&promotion).Error
	if err != nil {
		return nil, err
	}

	return &promotion, nil
}

func ListPromotions(ctx context.Context) ([]*Promotion, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchAllModels[Promotion](ctx, businessId)
}

// usageCount reports how many transaction lines have redeemed this promotion.
func (p *Promotion) usageCount(ctx context.Context) (int64, error) {
	db := config.GetDB()
	var count int64
	err := db.WithContext(ctx).Model(&PosTransactionDetail{}).
		Where("promo_id = ?", p.ID).
		Count(&count).Error
	return count, err
}
