// seed-demo creates a demo business with one branch, a small F&B catalog and
// a couple of promotions, so a fresh environment has data to checkout against.
//
// Usage (from the backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-demo
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warungtech/pos_backend/config"
	"github.com/warungtech/pos_backend/models"
	"github.com/warungtech/pos_backend/utils"
)

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	models.MigrateTable()

	business, err := models.CreateBusiness(ctx, &models.NewBusiness{
		Name:  "Warung Demo",
		Email: "owner@warung.demo",
		City:  "Jakarta",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create business: %v\n", err)
		os.Exit(1)
	}
	ctx = utils.SetBusinessIdInContext(ctx, business.ID.String())

	branch, err := models.CreateBranch(ctx, &models.NewBranch{
		Name:    "Demo Main Branch",
		Address: "Jl. Demo No. 1",
		City:    "Jakarta",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create branch: %v\n", err)
		os.Exit(1)
	}

	food, err := models.CreateProductCategory(ctx, &models.NewProductCategory{Name: "Food"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create category: %v\n", err)
		os.Exit(1)
	}
	drink, err := models.CreateProductCategory(ctx, &models.NewProductCategory{Name: "Drink"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create category: %v\n", err)
		os.Exit(1)
	}

	products := []models.NewProduct{
		{Name: "Nasi Goreng", CategoryId: food.ID, Price: decimal.NewFromInt(50000), BranchIds: []int{branch.ID}},
		{Name: "Mie Ayam", CategoryId: food.ID, Price: decimal.NewFromInt(35000), BranchIds: []int{branch.ID}},
		{Name: "Es Teh", CategoryId: drink.ID, Price: decimal.NewFromInt(8000), BranchIds: []int{branch.ID}},
		{Name: "Kopi Susu", CategoryId: drink.ID, Price: decimal.NewFromInt(18000), BranchIds: []int{branch.ID}},
	}
	var firstProductId int
	for i := range products {
		p, err := models.CreateProduct(ctx, &products[i])
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create product %q: %v\n", products[i].Name, err)
			os.Exit(1)
		}
		if firstProductId == 0 {
			firstProductId = p.ID
		}
	}

	tenPercent := decimal.NewFromInt(10)
	fiveThousand := decimal.NewFromInt(5000)
	now := time.Now()

	if _, err := models.CreatePromotion(ctx, &models.NewPromotion{
		Scope:           models.PromoScopeProduct,
		ProductId:       firstProductId,
		Name:            "Weekly Special",
		StartDate:       now.AddDate(0, 0, -1),
		EndDate:         now.AddDate(0, 0, 6),
		PercentDiscount: &tenPercent,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create promotion: %v\n", err)
		os.Exit(1)
	}
	if _, err := models.CreatePromotion(ctx, &models.NewPromotion{
		Scope:         models.PromoScopeBranch,
		BranchId:      branch.ID,
		Name:          "Grand Opening",
		StartDate:     now.AddDate(0, 0, -1),
		EndDate:       now.AddDate(0, 0, 13),
		PriceDiscount: &fiveThousand,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create promotion: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("seeded demo business %s (branch %d)\n", business.ID, branch.ID)
}
