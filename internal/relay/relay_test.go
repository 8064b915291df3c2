package relay

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mingainspire/better-bolt/internal/providers/llm"
	"github.com/mingainspire/better-bolt/internal/utils"
)

// fakeProvider replays a scripted exchange: optional whole-call failure,
// then chunks, then an optional terminal error.
type fakeProvider struct {
	openErr  error
	chunks   []string
	finalErr error

	// gate, when set, holds the stream open after emitting chunks until the
	// context is cancelled.
	gate bool
}

func (f *fakeProvider) StreamText(ctx context.Context, req llm.Request) (<-chan string, <-chan error, error) {
	if f.openErr != nil {
		return nil, nil, f.openErr
	}

	out := make(chan string, len(f.chunks)+1)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		for _, c := range f.chunks {
			select {
			case out <- c:
			case <-ctx.Done():
				return
			}
		}
		if f.gate {
			<-ctx.Done()
			return
		}
		if f.finalErr != nil {
			errs <- f.finalErr
		}
	}()

	return out, errs, nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func newTestRelay(p llm.Provider) *Relay {
	r := New(quietLogger())
	r.Register("Fake", p)
	return r
}

func TestStreamDeliversChunksInOrderAndCompletes(t *testing.T) {
	r := newTestRelay(&fakeProvider{chunks: []string{"a", "b", "c"}})

	s, err := r.Stream(context.Background(), Request{Provider: "Fake", Model: "m", Prompt: "p"})
	require.NoError(t, err)

	var got []string
	for c := range s.Chunks() {
		got = append(got, c)
	}
	require.NoError(t, <-s.Err())

	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, StateCompleted, s.State())
}

func TestStreamUnknownProvider(t *testing.T) {
	r := New(quietLogger())

	_, err := r.Stream(context.Background(), Request{Provider: "Nope"})
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestPreFirstByteFailureFailsWholeCall(t *testing.T) {
	openErr := utils.E(utils.CodeRejected, "Fake.StreamText", "bad key", nil)
	r := newTestRelay(&fakeProvider{openErr: openErr})

	s, err := r.Stream(context.Background(), Request{Provider: "Fake", Model: "m", Prompt: "p"})
	require.Error(t, err)
	assert.Nil(t, s)
	assert.True(t, utils.IsCode(err, utils.CodeRejected))
}

func TestMidStreamFailureKeepsDeliveredChunks(t *testing.T) {
	finalErr := utils.E(utils.CodeInterrupted, "Fake.StreamText", "connection reset", nil)
	r := newTestRelay(&fakeProvider{chunks: []string{"partial ", "text"}, finalErr: finalErr})

	s, err := r.Stream(context.Background(), Request{Provider: "Fake", Model: "m", Prompt: "p"})
	require.NoError(t, err)

	var got []string
	for c := range s.Chunks() {
		got = append(got, c)
	}
	terminal := <-s.Err()

	// Chunks already emitted stand even though the stream failed.
	assert.Equal(t, []string{"partial ", "text"}, got)
	require.Error(t, terminal)
	assert.True(t, utils.IsCode(terminal, utils.CodeInterrupted))
	assert.Equal(t, StateFailed, s.State())
}

func TestStateMovesToStreamingOnFirstChunk(t *testing.T) {
	r := newTestRelay(&fakeProvider{chunks: []string{"first"}, gate: true})

	s, err := r.Stream(context.Background(), Request{Provider: "Fake", Model: "m", Prompt: "p"})
	require.NoError(t, err)
	defer s.Cancel()

	first := <-s.Chunks()
	assert.Equal(t, "first", first)

	require.Eventually(t, func() bool {
		return s.State() == StateStreaming
	}, time.Second, 5*time.Millisecond)
}

func TestCancelStopsAnOpenStream(t *testing.T) {
	r := newTestRelay(&fakeProvider{chunks: []string{"only"}, gate: true})

	s, err := r.Stream(context.Background(), Request{Provider: "Fake", Model: "m", Prompt: "p"})
	require.NoError(t, err)

	<-s.Chunks()
	s.Cancel()

	// The chunk channel must close once the provider observes cancellation.
	require.Eventually(t, func() bool {
		select {
		case _, open := <-s.Chunks():
			return !open
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestEmptyStreamCompletesWithoutChunks(t *testing.T) {
	r := newTestRelay(&fakeProvider{})

	s, err := r.Stream(context.Background(), Request{Provider: "Fake", Model: "m", Prompt: "p"})
	require.NoError(t, err)

	for range s.Chunks() {
		t.Fatal("no chunks expected")
	}
	require.NoError(t, <-s.Err())
	assert.Equal(t, StateCompleted, s.State())
}
