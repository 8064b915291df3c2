// Package relay turns provider-specific completion streams into one
// normalized, ordered sequence of text chunks.
package relay

import (
	"context"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/mingainspire/better-bolt/internal/providers/llm"
	"github.com/mingainspire/better-bolt/internal/utils"
)

// State of a single stream. Requesting becomes Streaming on the first chunk;
// a stream that never leaves Requesting either completed empty or failed
// before the first byte.
type State int32

const (
	StateIdle State = iota
	StateRequesting
	StateStreaming
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateRequesting:
		return "requesting"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Request names the provider and model for one exchange and carries the
// composed prompt plus the client credential, if any.
type Request struct {
	Provider string
	Model    string
	Prompt   string
	APIKey   string
}

type Relay struct {
	adapters map[string]llm.Provider
	log      *logrus.Logger
}

func New(log *logrus.Logger) *Relay {
	return &Relay{adapters: map[string]llm.Provider{}, log: log}
}

// Register binds a provider id to its adapter.
func (r *Relay) Register(provider string, p llm.Provider) {
	r.adapters[provider] = p
}

// Stream starts one completion exchange. A non-nil error means the call
// failed as a whole before any chunk: unknown provider, provider rejection
// (4xx), or transport failure. Otherwise the returned Stream yields chunks in
// strict arrival order; chunks already emitted are never retracted when the
// stream later fails. A Stream is finite and not restartable.
func (r *Relay) Stream(ctx context.Context, req Request) (*Stream, error) {
	const op = "Relay.Stream"

	adapter, ok := r.adapters[req.Provider]
	if !ok {
		return nil, utils.E(utils.CodeInvalidArgument, op, "unknown provider "+req.Provider, nil)
	}

	sctx, cancel := context.WithCancel(ctx)

	s := &Stream{
		chunks: make(chan string, 32),
		errs:   make(chan error, 1),
		cancel: cancel,
	}
	s.state.Store(int32(StateRequesting))

	chunks, errs, err := adapter.StreamText(sctx, llm.Request{
		Model:  req.Model,
		Prompt: req.Prompt,
		APIKey: req.APIKey,
	})
	if err != nil {
		cancel()
		s.state.Store(int32(StateFailed))
		r.log.WithFields(logrus.Fields{
			"provider": req.Provider,
			"model":    req.Model,
		}).WithError(err).Warn("stream request failed")
		return nil, err
	}

	go func() {
		defer cancel()
		defer close(s.chunks)
		defer close(s.errs)

		for text := range chunks {
			s.state.CompareAndSwap(int32(StateRequesting), int32(StateStreaming))
			select {
			case s.chunks <- text:
			case <-sctx.Done():
				s.state.Store(int32(StateFailed))
				return
			}
		}

		// Adapters close the error channel after the chunk channel, with at
		// most one buffered terminal error.
		if terr := <-errs; terr != nil {
			s.state.Store(int32(StateFailed))
			s.errs <- terr
			return
		}
		s.state.Store(int32(StateCompleted))
	}()

	return s, nil
}

// Stream is one in-flight relay exchange.
type Stream struct {
	chunks chan string
	errs   chan error
	state  atomic.Int32
	cancel context.CancelFunc
}

// Chunks yields incremental text in arrival order. The channel closes on any
// terminal state.
func (s *Stream) Chunks() <-chan string { return s.chunks }

// Err yields the terminal error after Chunks closes, if the stream ended
// abnormally. Reading from the closed channel returns nil on clean end.
func (s *Stream) Err() <-chan error { return s.errs }

func (s *Stream) State() State { return State(s.state.Load()) }

// Cancel cooperatively stops the exchange. Already-delivered chunks stand;
// the upstream provider may keep generating until its own timeout.
func (s *Stream) Cancel() { s.cancel() }
