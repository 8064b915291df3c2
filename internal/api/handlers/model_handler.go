package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mingainspire/better-bolt/internal/models"
	"github.com/mingainspire/better-bolt/internal/registry"
)

// examplePrompts seed the empty-chat screen.
var examplePrompts = []string{
	"Explain how a CPU works",
	"Show me how garbage collection works in JavaScript",
	"Visualize the event loop in Node.js",
	"Create a diagram of React component lifecycle",
	"Explain Docker containerization",
}

// ModelHandler serves the provider/model catalog.
type ModelHandler struct {
	reg *registry.Registry
}

func NewModelHandler(reg *registry.Registry) *ModelHandler {
	return &ModelHandler{reg: reg}
}

// Models lists the catalog, optionally filtered with ?provider=.
func (h *ModelHandler) Models(c *gin.Context) {
	ctx := c.Request.Context()

	if p := c.Query("provider"); p != "" {
		c.JSON(http.StatusOK, gin.H{"models": h.reg.Models(ctx, p)})
		return
	}

	var all []models.ModelDescriptor
	for _, p := range h.reg.Providers() {
		all = append(all, h.reg.Models(ctx, p)...)
	}
	c.JSON(http.StatusOK, gin.H{"models": all})
}

func (h *ModelHandler) Providers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"providers": h.reg.Providers(),
		"default":   registry.DefaultProvider,
	})
}

func (h *ModelHandler) Examples(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"examples": examplePrompts})
}
