package middlewares

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Rejection is a terminal response produced by an interceptor.
type Rejection struct {
	Status  int
	Code    string
	Message string
	// Reason is a short machine label for logs and metrics.
	Reason string
}

func Unauthorized(reason, message string) *Rejection {
	return &Rejection{Status: http.StatusUnauthorized, Code: "unauthorized", Message: message, Reason: reason}
}

func Forbidden(reason, message string) *Rejection {
	return &Rejection{Status: http.StatusForbidden, Code: "forbidden", Message: message, Reason: reason}
}

// Interceptor either returns the context the next step should see, or a
// rejection that ends the request.
type Interceptor func(c *gin.Context) (context.Context, *Rejection)

// Chain runs interceptors in order. Each one sees the context produced by the
// previous one; the first rejection aborts and later steps never run.
func Chain(interceptors ...Interceptor) gin.HandlerFunc {
	return ChainWith(nil, interceptors...)
}

// ChainWith is Chain with a hook called once per rejection.
func ChainWith(onReject func(*gin.Context, *Rejection), interceptors ...Interceptor) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, step := range interceptors {
			ctx, rej := step(c)
			if rej != nil {
				if onReject != nil {
					onReject(c, rej)
				}
				abort(c, rej)
				return
			}
			if ctx != nil {
				c.Request = c.Request.WithContext(ctx)
			}
		}
		c.Next()
	}
}

func abort(c *gin.Context, rej *Rejection) {
	reqID, _ := c.Get(CtxRequestID)
	body := gin.H{
		"code":    rej.Code,
		"message": rej.Message,
	}
	if s, ok := reqID.(string); ok && s != "" {
		body["requestId"] = s
	}

	c.AbortWithStatusJSON(rej.Status, gin.H{"error": body})
}
