package models

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/warungtech/pos_backend/config"
	"github.com/warungtech/pos_backend/utils"
)

type Business struct {
	ID              uuid.UUID `gorm:"primary_key" json:"id"`
	Name            string    `gorm:"index;size:100;not null" json:"name" binding:"required"`
	ContactName     string    `gorm:"size:100" json:"contact_name"`
	Email           string    `gorm:"size:255" json:"email"`
	Phone           string    `gorm:"size:20" json:"phone"`
	Address         string    `gorm:"type:text" json:"address"`
	Country         string    `gorm:"size:100"  json:"country"`
	City            string    `gorm:"size:100"  json:"city"`
	Timezone        string    `gorm:"size:50" json:"timezone"`
	PrimaryBranchId int       `gorm:"not null;default:0" json:"primary_branch_id"`
	IsActive        *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBusiness struct {
	Name        string `json:"name" binding:"required"`
	ContactName string `json:"contact_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	Country     string `json:"country"`
	City        string `json:"city"`
	Timezone    string `json:"timezone"`
}

func CreateBusiness(ctx context.Context, input *NewBusiness) (*Business, error) {
	if input.Name == "" {
		return nil, utils.NewValidationError("business name is required")
	}

	business := Business{
		ID:          uuid.New(),
		Name:        input.Name,
		ContactName: input.ContactName,
		Email:       input.Email,
		Phone:       input.Phone,
		Address:     input.Address,
		Country:     input.Country,
		City:        input.City,
		Timezone:    input.Timezone,
		IsActive:    utils.NewTrue(),
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Create(&business).Error
	if err != nil {
		return nil, err
	}

	return &business, nil
}

func GetBusinessById(ctx context.Context, id string) (*Business, error) {
	db := config.GetDB()
	var business Business
	err := db.WithContext(ctx).Where("id = ?", id).First(&business).Error
	if err != nil {
		return nil, errors.New("business not found")
	}
	return &business, nil
}
