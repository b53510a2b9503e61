package middlewares

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/warungtech/pos_backend/utils"
)

// TenantMiddleware copies the tenant headers into the request context. The
// core never reads an ambient "current user": business, branch and user ids
// travel as explicit context values set here. Handlers reject requests whose
// required ids are missing.
func TenantMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if businessId := c.GetHeader("X-Business-Id"); businessId != "" {
			ctx = utils.SetBusinessIdInContext(ctx, businessId)
		}
		if branchId, err := strconv.Atoi(c.GetHeader("X-Branch-Id")); err == nil {
			ctx = utils.SetBranchIdInContext(ctx, branchId)
		}
		if userId, err := strconv.Atoi(c.GetHeader("X-User-Id")); err == nil {
			ctx = utils.SetUserIdInContext(ctx, userId)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
