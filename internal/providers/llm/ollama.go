package llm

import (
	"bufio"
	"context"
	"encoding/json"
	"io"

	"github.com/mingainspire/better-bolt/internal/utils"
)

const ollamaDefaultBaseURL = "http://localhost:11434"

// Ollama streams completions from a local Ollama daemon. The wire format is
// newline-delimited JSON, one object per chunk; no credential is needed.
type Ollama struct {
	baseURL string
}

func NewOllama(baseURL string) *Ollama {
	if baseURL == "" {
		baseURL = ollamaDefaultBaseURL
	}
	return &Ollama{baseURL: baseURL}
}

type ollamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type ollamaChatChunk struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

func (o *Ollama) StreamText(ctx context.Context, req Request) (<-chan string, <-chan error, error) {
	const op = "Ollama.StreamText"

	payload := ollamaChatRequest{
		Model:    req.Model,
		Messages: []chatMessage{{Role: "user", Content: req.Prompt}},
		Stream:   true,
	}

	resp, err := openStream(ctx, op, o.baseURL+"/api/chat", nil, payload)
	if err != nil {
		return nil, nil, err
	}

	out := make(chan string, chunkBuffer)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)
		defer resp.Body.Close()

		scanner := bufio.NewReader(resp.Body)
		for {
			if ctx.Err() != nil {
				return
			}

			line, rerr := scanner.ReadBytes('\n')
			if len(line) > 0 {
				var chunk ollamaChatChunk
				if jerr := json.Unmarshal(line, &chunk); jerr == nil {
					if chunk.Message.Content != "" {
						select {
						case out <- chunk.Message.Content:
						case <-ctx.Done():
							return
						}
					}
					if chunk.Done {
						return
					}
				}
			}

			if rerr == io.EOF {
				return
			}
			if rerr != nil {
				errs <- utils.E(utils.CodeInterrupted, op, "stream read failed", rerr)
				return
			}
		}
	}()

	return out, errs, nil
}
