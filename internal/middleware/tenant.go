package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// TenantMiddleware resolves the tenant for the request. IstioAuth populates
// tenant_id from the verified JWT; header fallbacks cover internal calls and
// local development. Requests with no resolvable tenant are rejected.
func TenantMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := ""
		if v, ok := c.Get("tenant_id"); ok {
			if s, ok := v.(string); ok {
				tenantID = s
			}
		}

		if tenantID == "" {
			tenantID = c.GetHeader("X-Vendor-ID")
		}
		if tenantID == "" {
			tenantID = c.GetHeader("X-Tenant-ID")
		}

		if tenantID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "TENANT_REQUIRED",
					"message": "Tenant context is required",
				},
			})
			c.Abort()
			return
		}

		// Both spellings are read downstream (handlers, RBAC middleware).
		c.Set("tenantId", tenantID)
		c.Set("tenant_id", tenantID)
		c.Set("vendor_id", tenantID)

		c.Next()
	}
}

// GetTenantID returns the tenant resolved by TenantMiddleware.
func GetTenantID(c *gin.Context) string {
	if v, ok := c.Get("tenantId"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetVendorID returns the vendor identifier for the request. Vendors map
// one-to-one onto tenants in the storefront deployment.
func GetVendorID(c *gin.Context) string {
	if v, ok := c.Get("vendor_id"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return GetTenantID(c)
}
