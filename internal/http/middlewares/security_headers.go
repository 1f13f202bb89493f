package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	defaultCSP = "default-src 'none'; frame-ancestors 'none'"
	// the Swagger UI page loads its bundle from unpkg and bootstraps inline
	swaggerCSP = "default-src 'self'; base-uri 'none'; frame-ancestors 'none'; object-src 'none'; connect-src 'self'; img-src 'self' data: https:; font-src 'self' https://unpkg.com data:; style-src 'self' 'unsafe-inline' https://unpkg.com; script-src 'self' 'unsafe-inline' https://unpkg.com"
)

var staticSecurityHeaders = map[string]string{
	"X-Content-Type-Options": "nosniff",
	"X-Frame-Options":        "DENY",
	"Referrer-Policy":        "no-referrer",
	"X-XSS-Protection":       "0",
}

func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		for k, v := range staticSecurityHeaders {
			h.Set(k, v)
		}

		csp := defaultCSP
		if strings.HasPrefix(c.Request.URL.Path, "/api-docs") {
			csp = swaggerCSP
		}
		h.Set("Content-Security-Policy", csp)

		c.Next()
	}
}
