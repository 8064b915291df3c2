package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mingainspire/better-bolt/internal/api/middleware"
	"github.com/mingainspire/better-bolt/internal/compose"
	"github.com/mingainspire/better-bolt/internal/registry"
	"github.com/mingainspire/better-bolt/internal/relay"
	"github.com/mingainspire/better-bolt/internal/utils"
)

// ChatHandler serves the stateless single-turn chat path. Provider, model,
// and client API keys travel in the execution context (selection headers and
// the apiKeys cookie), not in the body.
type ChatHandler struct {
	relay *relay.Relay
	reg   *registry.Registry
	log   *logrus.Logger
}

func NewChatHandler(rel *relay.Relay, reg *registry.Registry, log *logrus.Logger) *ChatHandler {
	return &ChatHandler{relay: rel, reg: reg, log: log}
}

type chatRequest struct {
	Message string `json:"message"`
}

// Chat streams the assistant's response as text/plain. The concatenated body
// bytes form the full response text. Any failure before the first byte is a
// bare 500; a mid-stream failure truncates the body and the partial result
// stands.
func (h *ChatHandler) Chat(c *gin.Context) {
	const op = "ChatHandler.Chat"

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "message is empty", nil))
		return
	}

	provider := c.GetString(middleware.CtxProvider)
	if provider == "" {
		provider = registry.DefaultProvider
	}

	modelName := c.GetString(middleware.CtxModel)
	if modelName == "" {
		m, ok := h.reg.DefaultModel(c.Request.Context(), provider)
		if !ok {
			writeError(c, utils.E(utils.CodeInvalidArgument, op, "unknown provider "+provider, nil))
			return
		}
		modelName = m.Name
	} else if _, ok := h.reg.Resolve(c.Request.Context(), provider, modelName); !ok {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "model "+modelName+" does not belong to provider "+provider, nil))
		return
	}

	key, _ := keyStore(c, h.log).Get(provider)

	stream, err := h.relay.Stream(c.Request.Context(), relay.Request{
		Provider: provider,
		Model:    modelName,
		Prompt:   compose.Prompt(req.Message),
		APIKey:   key,
	})
	if err != nil {
		_ = c.Error(err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Status(http.StatusOK)

	for chunk := range stream.Chunks() {
		if _, werr := c.Writer.WriteString(chunk); werr != nil {
			// Client went away; the relay stream is cancelled via the
			// request context.
			stream.Cancel()
			return
		}
		c.Writer.Flush()
	}

	if serr := <-stream.Err(); serr != nil {
		// Headers are long gone; all we can do is truncate and log.
		_ = c.Error(serr)
		h.log.WithFields(logrus.Fields{
			"provider": provider,
			"model":    modelName,
		}).WithError(serr).Warn("chat stream interrupted")
	}
}
