// Package session owns the state of one active chat conversation: message
// history, provider/model selection, and the single in-flight exchange.
package session

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/mingainspire/better-bolt/internal/compose"
	"github.com/mingainspire/better-bolt/internal/models"
	"github.com/mingainspire/better-bolt/internal/registry"
	"github.com/mingainspire/better-bolt/internal/relay"
	"github.com/mingainspire/better-bolt/internal/utils"
)

// failureNotice is the user-visible text raised when an exchange fails.
const failureNotice = "Failed to get response from AI"

// Sinks receive the observable effects of an exchange. OnChunk sees the
// accumulated tentative assistant text after each chunk; nothing reaches
// history until the stream terminates. Only OnFailure is user-visible; lower
// layers never surface notifications themselves.
type Sinks struct {
	OnChunk   func(accumulated string)
	OnDone    func(final string)
	OnFailure func(notice string)
}

// Credentials resolves the client API key for a provider. Absence is fine;
// the relay falls back to the server default.
type Credentials func(provider string) (string, bool)

type Controller struct {
	reg   *registry.Registry
	relay *relay.Relay
	creds Credentials
	log   *logrus.Logger

	mu        sync.Mutex
	provider  string
	model     models.ModelDescriptor
	history   []models.Message
	streaming bool
	cancel    context.CancelFunc
	stopped   *atomic.Bool // local-stop flag of the in-flight exchange
}

// New builds a controller with the default provider/model selection.
func New(ctx context.Context, reg *registry.Registry, rel *relay.Relay, creds Credentials, log *logrus.Logger) *Controller {
	c := &Controller{reg: reg, relay: rel, creds: creds, log: log}
	c.provider = registry.DefaultProvider
	if m, ok := reg.DefaultModel(ctx, c.provider); ok {
		c.model = m
	}
	return c
}

func (c *Controller) Selection() (string, models.ModelDescriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.provider, c.model
}

func (c *Controller) Streaming() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.streaming
}

// History returns a copy of the conversation so far.
func (c *Controller) History() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Message, len(c.history))
	copy(out, c.history)
	return out
}

// SetProvider changes the selected provider and atomically re-resolves the
// model to the provider's default, keeping selection consistent.
func (c *Controller) SetProvider(ctx context.Context, provider string) error {
	const op = "ChatSession.SetProvider"

	m, ok := c.reg.DefaultModel(ctx, provider)
	if !ok {
		return utils.E(utils.CodeInvalidArgument, op, "unknown provider "+provider, nil)
	}

	c.mu.Lock()
	c.provider = provider
	c.model = m
	c.mu.Unlock()
	return nil
}

// SetModel selects a model within the current provider; anything else is an
// invalid selection.
func (c *Controller) SetModel(ctx context.Context, name string) error {
	const op = "ChatSession.SetModel"

	c.mu.Lock()
	provider := c.provider
	c.mu.Unlock()

	m, ok := c.reg.Resolve(ctx, provider, name)
	if !ok {
		return utils.E(utils.CodeInvalidArgument, op, "model "+name+" does not belong to provider "+provider, nil)
	}

	c.mu.Lock()
	// Selection may have moved while resolving; only apply if it still fits.
	if c.provider == provider {
		c.model = m
	}
	c.mu.Unlock()
	return nil
}

// Send runs one exchange to completion. The user message is appended to
// history immediately; the assistant message is appended only when the stream
// completes cleanly. A send while another exchange is streaming is a no-op,
// not queued. Empty (after trimming) input is rejected before composition.
func (c *Controller) Send(ctx context.Context, userText string, sinks Sinks) error {
	const op = "ChatSession.Send"

	if strings.TrimSpace(userText) == "" {
		return utils.E(utils.CodeInvalidArgument, op, "message is empty", nil)
	}

	c.mu.Lock()
	if c.streaming {
		c.mu.Unlock()
		return nil
	}

	c.history = append(c.history, models.UserMessage(userText))
	c.streaming = true

	stopped := &atomic.Bool{}
	c.stopped = stopped

	sctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	req := relay.Request{
		Provider: c.provider,
		Model:    c.model.Name,
		Prompt:   compose.Prompt(userText),
	}
	c.mu.Unlock()

	if c.creds != nil {
		if key, ok := c.creds(req.Provider); ok {
			req.APIKey = key
		}
	}

	stream, err := c.relay.Stream(sctx, req)
	if err != nil {
		c.finish(stopped, cancel)
		if !stopped.Load() && sinks.OnFailure != nil {
			sinks.OnFailure(failureNotice)
		}
		return err
	}

	var full strings.Builder
	for chunk := range stream.Chunks() {
		full.WriteString(chunk)
		if sinks.OnChunk != nil && !stopped.Load() {
			sinks.OnChunk(full.String())
		}
	}
	streamErr := <-stream.Err()

	c.finish(stopped, cancel)

	if stopped.Load() {
		// Locally stopped: tentative text is dropped, no notification.
		return nil
	}

	if streamErr != nil {
		// Partial text never reaches history.
		if sinks.OnFailure != nil {
			sinks.OnFailure(failureNotice)
		}
		return streamErr
	}

	final := full.String()
	c.mu.Lock()
	c.history = append(c.history, models.AssistantMessage(final))
	c.mu.Unlock()

	if sinks.OnDone != nil {
		sinks.OnDone(final)
	}
	return nil
}

// Stop requests cancellation of the in-flight exchange. Best effort: local
// state stops updating immediately, while the upstream call is cancelled
// cooperatively and may run on until the provider's own timeout.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.streaming {
		return
	}
	if c.stopped != nil {
		c.stopped.Store(true)
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.streaming = false
	c.cancel = nil
}

// finish clears in-flight state unless Stop already did.
func (c *Controller) finish(stopped *atomic.Bool, cancel context.CancelFunc) {
	cancel()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped == stopped {
		c.streaming = false
		c.cancel = nil
		c.stopped = nil
	}
}
