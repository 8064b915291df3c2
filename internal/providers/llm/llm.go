package llm

import "context"

// Request is a single-turn completion request, already composed.
type Request struct {
	Model  string
	Prompt string
	// APIKey is the client-supplied credential. Empty means the adapter falls
	// back to its server-configured default for that provider.
	APIKey string
}

// Provider streams completion text for a single prompt.
//
// A non-nil error means the call failed before any byte was received and no
// channels are live. Otherwise chunks carries incremental text in strict
// arrival order, errs delivers at most one terminal error (abnormal end), and
// both channels are closed when the stream finishes.
type Provider interface {
	StreamText(ctx context.Context, req Request) (chunks <-chan string, errs <-chan error, err error)
}

// chunkBuffer is the channel buffer for incremental text chunks.
const chunkBuffer = 32
