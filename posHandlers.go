package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/warungtech/pos_backend/config"
	"github.com/warungtech/pos_backend/models"
	"github.com/warungtech/pos_backend/utils"
)

func registerRoutes(r *gin.Engine) {
	pos := r.Group("/pos")
	{
		pos.POST("/checkout", checkoutHandler)
		pos.POST("/preview", checkoutPreviewHandler)
		pos.GET("/promo", resolvePromoHandler)
		pos.GET("/transactions", listTransactionsHandler)
		pos.GET("/transactions/:id", getTransactionHandler)
	}

	catalog := r.Group("/catalog")
	{
		catalog.POST("/businesses", createBusinessHandler)
		catalog.GET("/businesses/:id", getBusinessHandler)
		catalog.POST("/branches", createBranchHandler)
		catalog.GET("/branches", listBranchesHandler)
		catalog.GET("/branches/:id", getBranchHandler)
		catalog.POST("/categories", createCategoryHandler)
		catalog.GET("/categories", listCategoriesHandler)
		catalog.GET("/categories/:id", getCategoryHandler)
		catalog.POST("/products", createProductHandler)
		catalog.GET("/products", listProductsHandler)
		catalog.GET("/products/:id", getProductHandler)
		catalog.POST("/promotions", createPromotionHandler)
		catalog.GET("/promotions", listPromotionsHandler)
	}
}

// POST /pos/checkout
// Records one completed checkout: header plus lines, atomically.
func checkoutHandler(c *gin.Context) {
	var input models.NewPosTransaction
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if input.UserId == 0 {
		if userId, ok := utils.GetUserIdFromContext(ctx); ok {
			input.UserId = userId
		}
	}
	posTransaction, err := models.CreatePosTransaction(ctx, &input)
	if err != nil {
		respondWithCheckoutError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"transaction":   posTransaction,
		"change_amount": posTransaction.ChangeAmount,
	})
}

// POST /pos/preview
// Prices an order without recording it; the cashier screen shows the totals
// before taking payment.
func checkoutPreviewHandler(c *gin.Context) {
	var input models.NewPosTransaction
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := models.ComputeCheckoutSummary(&input)
	if err != nil {
		respondWithCheckoutError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GET /pos/promo?product_id=&branch_id=
// Resolves the discount in effect for a product right now. The cashier
// screen calls this as each item is added, so the snapshot reflects that
// instant rather than final checkout time.
func resolvePromoHandler(c *gin.Context) {
	productId, err := strconv.Atoi(c.Query("product_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product_id is required"})
		return
	}
	branchId, err := strconv.Atoi(c.Query("branch_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "branch_id is required"})
		return
	}

	ctx := c.Request.Context()
	promo, err := models.ResolvePromoForProduct(ctx, productId, branchId)
	if err != nil {
		config.LogError(config.GetLogger(), "pos", "resolvePromoHandler", "resolve promo", c.Request.URL.Query(), err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"promotion": promo})
}

// GET /pos/transactions?branch_id=
func listTransactionsHandler(c *gin.Context) {
	ctx := c.Request.Context()

	branchId, err := strconv.Atoi(c.Query("branch_id"))
	if err != nil {
		// no query filter; fall back to the branch the tenant headers put on
		// the context, or list the whole business
		branchId, _ = utils.GetBranchIdFromContext(ctx)
	}
	transactions, err := models.ListPosTransactions(ctx, branchId)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, transactions)
}

// GET /pos/transactions/:id
func getTransactionHandler(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transaction id"})
		return
	}

	ctx := c.Request.Context()
	posTransaction, err := models.GetPosTransaction(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, posTransaction)
}

// respondWithCheckoutError maps the checkout failure taxonomy onto statuses:
// validation 400, insufficient payment 422, exhausted number retries 409,
// anything else 500.
func respondWithCheckoutError(c *gin.Context, err error) {
	switch {
	case utils.IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrInsufficientPayment):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrTransactionNumberConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		if err.Error() == "business id is required" {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		correlationId, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		config.LogError(config.GetLogger(), "pos", "checkout", "create pos transaction",
			map[string]string{"correlation_id": correlationId}, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
