package middleware

import (
	"github.com/gin-gonic/gin"
)

// Context keys for the per-request execution context. Provider, model, and
// client credentials travel out-of-band (headers and cookie), not in request
// bodies.
const (
	CtxProvider = "selected_provider"
	CtxModel    = "selected_model"
)

// Selection reads the model/provider selection headers into the request
// context. Handlers fall back to registry defaults when absent.
func Selection() gin.HandlerFunc {
	return func(c *gin.Context) {
		if p := c.GetHeader("X-Provider"); p != "" {
			c.Set(CtxProvider, p)
		}
		if m := c.GetHeader("X-Model"); m != "" {
			c.Set(CtxModel, m)
		}
		c.Next()
	}
}
