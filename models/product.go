package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warungtech/pos_backend/config"
	"github.com/warungtech/pos_backend/utils"
)

type Product struct {
	ID          int             `gorm:"primary_key" json:"id"`
	BusinessId  string          `gorm:"index;not null" json:"business_id"`
	CategoryId  int             `gorm:"index;not null;default:0" json:"category_id"`
	Name        string          `gorm:"size:100;not null" json:"name" binding:"required"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"price"`
	IsActive    *bool           `gorm:"not null;default:true" json:"is_active"`
	Branches    []Branch        `gorm:"many2many:branches_link_products" json:"-"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProduct struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	CategoryId  int             `json:"category_id"`
	Price       decimal.Decimal `json:"price"`
	BranchIds   []int           `json:"branch_ids" binding:"required"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewProduct) validate(ctx context.Context, businessId string, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Product](ctx, businessId, id); err != nil {
			return err
		}
	}
	if input.Price.IsNegative() {
		return utils.NewValidationError("product price must not be negative")
	}
	if input.CategoryId > 0 {
		if err := utils.ValidateResourceId[ProductCategory](ctx, businessId, input.CategoryId); err != nil {
			return errors.New("productCategory not found")
		}
	}
	if len(input.BranchIds) == 0 {
		return utils.NewValidationError("product must belong to at least one branch")
	}
	if err := utils.ValidateResourcesId[Branch](ctx, businessId, input.BranchIds); err != nil {
		return errors.New("branch not found")
	}
	return nil
}

func CreateProduct(ctx context.Context, input *NewProduct) (*Product, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	db := config.GetDB()

	var branches []Branch
	if err := db.WithContext(ctx).
		Where("business_id = ? AND id IN ?", businessId, input.BranchIds).
		Find(&branches).Error; err != nil {
		return nil, err
	}

	product := Product{
		BusinessId:  businessId,
		CategoryId:  input.CategoryId,
		Name:        input.Name,
		Description: input.Description,
		Price:       utils.Round2(input.Price),
		IsActive:    utils.NewTrue(),
		Branches:    branches,
	}

	err := db.WithContext(ctx).Create(&product).Error
	if err != nil {
		return nil, err
	}

	return &product, nil
}

func GetProduct(ctx context.Context, id int) (*Product, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[Product](ctx, businessId, id)
}

// ListProductsByBranch returns the catalog a cashier screen offers at one branch.
func ListProductsByBranch(ctx context.Context, branchId int) ([]*Product, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := utils.ValidateResourceId[Branch](ctx, businessId, branchId); err != nil {
		return nil, errors.New("branch not found")
	}

	db := config.GetDB()
	var products []*Product
	err := db.WithContext(ctx).
		Joins("JOIN branches_link_products blp ON blp.product_id = products.id").
		Where("blp.branch_id = ? AND products.business_id = ?", branchId, businessId).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// productOwnedByBranch reports whether the product is sold at the branch.
// Promo resolution treats a product with no owning branch as having no discount.
func productOwnedByBranch(ctx context.Context, productId int, branchId int) (bool, error) {
	db := config.GetDB()
	var count int64
	err := db.WithContext(ctx).Table("branches_link_products").
		Where("product_id = ? AND branch_id = ?", productId, branchId).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
