package models

import (
	"context"
	"errors"
	"time"

	"github.com/warungtech/pos_backend/config"
	"github.com/warungtech/pos_backend/utils"
)

type ProductCategory struct {
	ID         int       `gorm:"primary_key" json:"id"`
	BusinessId string    `gorm:"index;not null" json:"business_id"`
	Name       string    `gorm:"index;size:100;not null" json:"name" binding:"required"`
	IsActive   *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProductCategory struct {
	Name string `json:"name" binding:"required"`
}

// get ids of associated products
func (pc ProductCategory) ProductIds(ctx context.Context) (ids []int, err error) {
	db := config.GetDB()
	err = db.WithContext(ctx).Model(&Product{}).
		Where("category_id = ?", pc.ID).
		Select("id").Scan(&ids).Error
	return
}

func CreateProductCategory(ctx context.Context, input *NewProductCategory) (*ProductCategory, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := utils.ValidateUnique[ProductCategory](ctx, businessId, "name", input.Name, 0); err != nil {
		return nil, err
	}

	category := ProductCategory{
		BusinessId: businessId,
		Name:       input.Name,
		IsActive:   utils.NewTrue(),
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Create(&category).Error
	if err != nil {
		return nil, err
	}

	return &category, nil
}

func GetProductCategory(ctx context.Context, id int) (*ProductCategory, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[ProductCategory](ctx, businessId, id)
}

func ListProductCategories(ctx context.Context) ([]*ProductCategory, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchAllModels[ProductCategory](ctx, businessId)
}
