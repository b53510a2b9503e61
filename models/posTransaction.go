package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/warungtech/pos_backend/config"
	"github.com/warungtech/pos_backend/utils"
	"gorm.io/gorm"
)

// Checkout writes retry this many times on a transaction-number collision
// before giving up.
const maxTransactionNumberAttempts = 3

// PosTransaction is the immutable header of one completed checkout.
// Created exactly once, together with its details, and never mutated.
type PosTransaction struct {
	ID                int                    `gorm:"primary_key" json:"id"`
	BusinessId        string                 `gorm:"uniqueIndex:ux_pos_transactions_number;index;not null" json:"business_id"`
	TransactionNumber string                 `gorm:"uniqueIndex:ux_pos_transactions_number;size:20;not null" json:"transaction_number"`
	BranchId          int                    `gorm:"index;not null" json:"branch_id"`
	UserId            int                    `gorm:"index;not null" json:"user_id"`
	CustomerName      string                 `gorm:"size:100" json:"customer_name"`
	CustomerPhone     string                 `gorm:"size:20" json:"customer_phone"`
	DiscountType      DiscountType           `gorm:"type:enum('none','amount','percent');default:'none'" json:"discount_type"`
	DiscountValue     decimal.Decimal        `gorm:"type:decimal(20,2);default:0" json:"discount_value"`
	Subtotal          decimal.Decimal        `gorm:"type:decimal(20,2);default:0" json:"subtotal"`
	TotalAmount       decimal.Decimal        `gorm:"type:decimal(20,2);default:0" json:"total_amount"`
	PaymentAmount     decimal.Decimal        `gorm:"type:decimal(20,2);default:0" json:"payment_amount"`
	ChangeAmount      decimal.Decimal        `gorm:"type:decimal(20,2);default:0" json:"change_amount"`
	Details           []PosTransactionDetail `gorm:"foreignKey:PosTransactionId" json:"details"`
	CreatedAt         time.Time              `gorm:"autoCreateTime" json:"created_at"`
}

// PosTransactionDetail is one line of a checkout. Product name, category
// name, price and discount fields are snapshots: a persisted transaction
// must never change meaning because the catalog was edited later.
type PosTransactionDetail struct {
	ID               int              `gorm:"primary_key" json:"id"`
	PosTransactionId int              `gorm:"index;not null" json:"pos_transaction_id"`
	ProductId        int              `gorm:"index;not null" json:"product_id"`
	ProductName      string           `gorm:"size:100;not null" json:"product_name"`
	CategoryName     string           `gorm:"size:100" json:"category_name"`
	Price            decimal.Decimal  `gorm:"type:decimal(20,2);default:0" json:"price"`
	Quantity         int              `gorm:"not null" json:"quantity"`
	PromoId          *int             `gorm:"index;default:null" json:"promo_id"`
	DiscountPercent  *decimal.Decimal `gorm:"type:decimal(20,2);default:null" json:"discount_percent"`
	DiscountPrice    *decimal.Decimal `gorm:"type:decimal(20,2);default:null" json:"discount_price"`
	LineTotal        decimal.Decimal  `gorm:"type:decimal(20,2);default:0" json:"line_total"`
	CreatedAt        time.Time        `gorm:"autoCreateTime" json:"created_at"`
}

type NewPosTransactionItem struct {
	ProductId    int             `json:"product_id" binding:"required"`
	ProductName  string          `json:"product_name" binding:"required"`
	CategoryName string          `json:"category_name"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity" binding:"required"`
	// Promo fields are the caller's snapshot from when the cashier added the
	// item; the recorder does not re-resolve them at checkout time.
	PromoId         *int             `json:"promo_id"`
	DiscountPercent *decimal.Decimal `json:"discount_percent"`
	DiscountPrice   *decimal.Decimal `json:"discount_price"`
}

type NewPosTransaction struct {
	BranchId int `json:"branch_id" binding:"required"`
	// UserId may come from the body or the X-User-Id header.
	UserId        int                     `json:"user_id"`
	CustomerName  string                  `json:"customer_name"`
	CustomerPhone string                  `json:"customer_phone"`
	Items         []NewPosTransactionItem `json:"items" binding:"required,dive"`
	DiscountType  DiscountType            `json:"discount_type" binding:"omitempty,discounttype"`
	DiscountValue decimal.Decimal         `json:"discount_value"`
	PaymentAmount decimal.Decimal         `json:"payment_amount"`
}

// CheckoutSummary is the financial outcome of an order before anything is
// written: gross subtotal, order total after the optional order-level
// discount, change due, and the fully-priced lines.
type CheckoutSummary struct {
	Subtotal     decimal.Decimal        `json:"subtotal"`
	TotalAmount  decimal.Decimal        `json:"total_amount"`
	ChangeAmount decimal.Decimal        `json:"change_amount"`
	Details      []PosTransactionDetail `json:"details"`
}

func (input *NewPosTransaction) validate(ctx context.Context, businessId string) error {
	if err := utils.ValidateResourceId[Branch](ctx, businessId, input.BranchId); err != nil {
		return utils.NewValidationError("branch not found")
	}
	if input.UserId <= 0 {
		return utils.NewValidationError("user id is required")
	}
	if len(input.Items) == 0 {
		return utils.NewValidationError("checkout requires at least one item")
	}

	productIds := make([]int, 0, len(input.Items))
	for i, item := range input.Items {
		if item.Quantity <= 0 {
			return utils.NewValidationError(fmt.Sprintf("invalid quantity for product %d", item.ProductId))
		}
		if item.Price.IsNegative() {
			return utils.NewValidationError(fmt.Sprintf("invalid price for product %d", item.ProductId))
		}
		if item.DiscountPercent != nil {
			p := *item.DiscountPercent
			if p.IsNegative() || p.GreaterThan(decimal.NewFromInt(100)) {
				return utils.NewValidationError(fmt.Sprintf("invalid discount percent on item %d", i))
			}
		}
		if item.DiscountPrice != nil && item.DiscountPrice.IsNegative() {
			return utils.NewValidationError(fmt.Sprintf("invalid discount price on item %d", i))
		}
		productIds = append(productIds, item.ProductId)
	}
	if err := utils.ValidateResourcesId[Product](ctx, businessId, productIds); err != nil {
		return utils.NewValidationError("product not found")
	}

	// unrecognized order discount types are non-fatal; the calculator passes
	// the subtotal through untouched
	if input.DiscountValue.IsNegative() {
		return utils.NewValidationError("discount value must not be negative")
	}
	if input.PaymentAmount.IsNegative() {
		return utils.NewValidationError("payment amount must not be negative")
	}

	return nil
}

// ComputeCheckoutSummary prices an order without touching storage: line
// totals from the snapshotted promo fields, gross subtotal (raw price x qty;
// promo effects live in each line's total), the order-level discount, and
// change. Returns ErrInsufficientPayment when the payment does not cover the
// total.
func ComputeCheckoutSummary(input *NewPosTransaction) (*CheckoutSummary, error) {
	var subtotal decimal.Decimal
	details := make([]PosTransactionDetail, 0, len(input.Items))

	for _, item := range input.Items {
		qty := decimal.NewFromInt(int64(item.Quantity))
		subtotal = subtotal.Add(item.Price.Mul(qty))

		details = append(details, PosTransactionDetail{
			ProductId:       item.ProductId,
			ProductName:     item.ProductName,
			CategoryName:    item.CategoryName,
			Price:           utils.Round2(item.Price),
			Quantity:        item.Quantity,
			PromoId:         item.PromoId,
			DiscountPercent: item.DiscountPercent,
			DiscountPrice:   item.DiscountPrice,
			LineTotal:       utils.CalculateLineTotal(item.Price, item.Quantity, item.DiscountPercent, item.DiscountPrice),
		})
	}

	subtotal = utils.Round2(subtotal)
	total := utils.ApplyOrderDiscount(subtotal, string(input.DiscountType), input.DiscountValue)

	if input.PaymentAmount.LessThan(total) {
		return nil, utils.ErrInsufficientPayment
	}

	return &CheckoutSummary{
		Subtotal:     subtotal,
		TotalAmount:  total,
		ChangeAmount: utils.CalculateChange(input.PaymentAmount, total),
		Details:      details,
	}, nil
}

// CreatePosTransaction runs the full checkout: validate, price, number, and
// persist header + lines as one unit of work. On success exactly one header
// row and N detail rows exist; on any failure path zero rows were written.
// A duplicate transaction number triggers a bounded retry with a reseeded
// sequence before surfacing ErrTransactionNumberConflict.
func CreatePosTransaction(ctx context.Context, input *NewPosTransaction) (*PosTransaction, error) {
	db := config.GetDB()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	summary, err := ComputeCheckoutSummary(input)
	if err != nil {
		return nil, err
	}

	discountType := input.DiscountType
	if discountType == "" {
		discountType = DiscountTypeNone
	}

	now := time.Now()
	prefix := utils.DailyTransactionPrefix(now)

	for attempt := 1; attempt <= maxTransactionNumberAttempts; attempt++ {
		seqNo, err := utils.GetDailySequence[PosTransaction](ctx, businessId, prefix)
		if err != nil {
			return nil, err
		}

		// fresh detail rows per attempt; a rolled-back create may have
		// assigned ids to the previous slice
		details := make([]PosTransactionDetail, len(summary.Details))
		copy(details, summary.Details)

		posTransaction := PosTransaction{
			BusinessId:        businessId,
			TransactionNumber: utils.FormatTransactionNumber(prefix, seqNo),
			BranchId:          input.BranchId,
			UserId:            input.UserId,
			CustomerName:      input.CustomerName,
			CustomerPhone:     input.CustomerPhone,
			DiscountType:      discountType,
			DiscountValue:     utils.Round2(input.DiscountValue),
			Subtotal:          summary.Subtotal,
			TotalAmount:       summary.TotalAmount,
			PaymentAmount:     utils.Round2(input.PaymentAmount),
			ChangeAmount:      summary.ChangeAmount,
			Details:           details,
		}

		tx := db.Begin()
		if tx.Error != nil {
			return nil, tx.Error
		}
		if err := tx.WithContext(ctx).Create(&posTransaction).Error; err != nil {
			tx.Rollback()
			if isDuplicateKey(err) {
				// collision with a concurrent checkout; reseed and retry
				if rerr := utils.ResetDailySequence[PosTransaction](businessId, prefix); rerr != nil {
					return nil, rerr
				}
				continue
			}
			return nil, err
		}
		if err := tx.Commit().Error; err != nil {
			return nil, err
		}

		return &posTransaction, nil
	}

	return nil, utils.ErrTransactionNumberConflict
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

func GetPosTransaction(ctx context.Context, id int) (*PosTransaction, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[PosTransaction](ctx, businessId, id, "Details")
}

// ListPosTransactions returns the checkout ledger, optionally filtered by
// branch, newest first.
func ListPosTransactions(ctx context.Context, branchId int) ([]*PosTransaction, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).
		Where("business_id = ?", businessId).
		Preload("Details").
		Order("id DESC")
	if branchId > 0 {
		dbCtx = dbCtx.Where("branch_id = ?", branchId)
	}

	var transactions []*PosTransaction
	if err := dbCtx.Find(&transactions).Error; err != nil {
		return nil, err
	}
	return transactions, nil
}
