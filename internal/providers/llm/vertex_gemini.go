package llm

import (
	"context"
	"errors"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"

	"github.com/mingainspire/better-bolt/internal/utils"
)

const vertexDefaultModel = "gemini-1.5-flash"

// VertexGemini serves the Google provider through Vertex AI. Authentication
// is application-default credentials on the server side; a per-client API key
// does not apply here, so the request's APIKey is ignored.
type VertexGemini struct {
	client *vertexgenai.Client
}

func NewVertexGemini(ctx context.Context, projectID, location string) (*VertexGemini, error) {
	c, err := vertexgenai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, err
	}
	return &VertexGemini{client: c}, nil
}

func (v *VertexGemini) Close() error { return v.client.Close() }

func (v *VertexGemini) StreamText(ctx context.Context, req Request) (<-chan string, <-chan error, error) {
	const op = "VertexGemini.StreamText"

	name := req.Model
	if name == "" {
		name = vertexDefaultModel
	}
	model := v.client.GenerativeModel(name)

	it := model.GenerateContentStream(ctx, vertexgenai.Text(req.Prompt))

	// The SDK reports request rejection on the first Next, so pull it
	// synchronously: a failure here means no byte was delivered and the call
	// fails as a whole.
	first, err := it.Next()
	if err != nil && err != iterator.Done {
		return nil, nil, classifyVertexErr(op, err)
	}

	out := make(chan string, chunkBuffer)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		if err == iterator.Done {
			return
		}

		emit := func(resp *vertexgenai.GenerateContentResponse) bool {
			for _, cand := range resp.Candidates {
				if cand.Content == nil {
					continue
				}
				for _, part := range cand.Content.Parts {
					if t, ok := part.(vertexgenai.Text); ok && string(t) != "" {
						select {
						case out <- string(t):
						case <-ctx.Done():
							return false
						}
					}
				}
			}
			return true
		}

		if !emit(first) {
			return
		}
		for {
			resp, nerr := it.Next()
			if nerr == iterator.Done {
				return
			}
			if nerr != nil {
				errs <- utils.E(utils.CodeInterrupted, op, "stream read failed", nerr)
				return
			}
			if !emit(resp) {
				return
			}
		}
	}()

	return out, errs, nil
}

func classifyVertexErr(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code >= 400 && gerr.Code < 500 {
		return utils.E(utils.CodeRejected, op, "provider rejected request", err)
	}
	return utils.E(utils.CodeUnavailable, op, "provider unreachable", err)
}
