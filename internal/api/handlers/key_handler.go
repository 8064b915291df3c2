package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mingainspire/better-bolt/internal/registry"
	"github.com/mingainspire/better-bolt/internal/utils"
)

// KeyHandler manages the client's per-provider API keys. Secrets are written
// into the apiKeys cookie and never echoed back.
type KeyHandler struct {
	reg *registry.Registry
	log *logrus.Logger
}

func NewKeyHandler(reg *registry.Registry, log *logrus.Logger) *KeyHandler {
	return &KeyHandler{reg: reg, log: log}
}

// List reports which providers have a client key configured.
func (h *KeyHandler) List(c *gin.Context) {
	configured := keyStore(c, h.log).Configured()

	out := map[string]bool{}
	for _, p := range h.reg.Providers() {
		out[p] = configured[p]
	}
	c.JSON(http.StatusOK, gin.H{"providers": out})
}

type setKeyRequest struct {
	Key string `json:"key"`
}

// Set merges one provider's key into the cookie record.
func (h *KeyHandler) Set(c *gin.Context) {
	const op = "KeyHandler.Set"

	provider := c.Param("provider")

	known := false
	for _, p := range h.reg.Providers() {
		if p == provider {
			known = true
			break
		}
	}
	if !known {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "unknown provider "+provider, nil))
		return
	}

	var req setKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}

	if err := keyStore(c, h.log).Set(provider, req.Key); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
