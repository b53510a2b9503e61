package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/warungtech/pos_backend/config"
	"github.com/warungtech/pos_backend/utils"
)

type Branch struct {
	ID         int       `gorm:"primary_key" json:"id"`
	BusinessId string    `gorm:"index;not null" json:"business_id"`
	Name       string    `gorm:"index;size:100;not null" json:"name" binding:"required"`
	Phone      string    `gorm:"size:20" json:"phone"`
	Address    string    `gorm:"type:text" json:"address"`
	City       string    `gorm:"size:100" json:"city"`
	IsActive   *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBranch struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewBranch) validate(ctx context.Context, businessId string, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Branch](ctx, businessId, id); err != nil {
			return err
		}
	}
	// name
	if err := utils.ValidateUnique[Branch](ctx, businessId, "name", input.Name, id); err != nil {
		return err
	}
	// phone
	if len(strings.TrimSpace(input.Phone)) > 0 {
		if err := utils.ValidateUnique[Branch](ctx, businessId, "phone", input.Phone, id); err != nil {
			return err
		}
	}
	return nil
}

func CreateBranch(ctx context.Context, input *NewBranch) (*Branch, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	branch := Branch{
		BusinessId: businessId,
		Name:       input.Name,
		Phone:      input.Phone,
		Address:    input.Address,
		City:       input.City,
		IsActive:   utils.NewTrue(),
	}

	// db action
	db := config.GetDB()
	err := db.WithContext(ctx).Create(&branch).Error
	if err != nil {
		return nil, err
	}

	return &branch, nil
}

func GetBranch(ctx context.Context, id int) (*Branch, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[Branch](ctx, businessId, id)
}

func ListBranches(ctx context.Context) ([]*Branch, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchAllModels[Branch](ctx, businessId)
}
