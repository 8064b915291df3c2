package llm

import (
	"context"
	"encoding/json"
	"io"

	"github.com/mingainspire/better-bolt/internal/utils"
)

const (
	anthropicDefaultBaseURL = "https://api.anthropic.com"
	anthropicVersion        = "2023-06-01"
	anthropicMaxTokens      = 8192
)

// Anthropic streams completions from the Messages API.
//
// SSE lifecycle: message_start -> content_block_start ->
// content_block_delta(s) -> content_block_stop -> message_delta -> message_stop.
// Only text deltas are forwarded.
type Anthropic struct {
	baseURL string
	apiKey  string // server default, used when the request carries no key
}

func NewAnthropic(baseURL, apiKey string) *Anthropic {
	if baseURL == "" {
		baseURL = anthropicDefaultBaseURL
	}
	return &Anthropic{baseURL: baseURL, apiKey: apiKey}
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
	Stream    bool               `json:"stream"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (a *Anthropic) StreamText(ctx context.Context, req Request) (<-chan string, <-chan error, error) {
	const op = "Anthropic.StreamText"

	key := req.APIKey
	if key == "" {
		key = a.apiKey
	}
	if key == "" {
		return nil, nil, utils.E(utils.CodeRejected, op, "no API key configured for Anthropic", nil)
	}

	headers := map[string]string{
		"x-api-key":         key,
		"anthropic-version": anthropicVersion,
		"Accept":            "text/event-stream",
	}
	payload := anthropicRequest{
		Model:     req.Model,
		MaxTokens: anthropicMaxTokens,
		Messages:  []anthropicMessage{{Role: "user", Content: req.Prompt}},
		Stream:    true,
	}

	resp, err := openStream(ctx, op, a.baseURL+"/v1/messages", headers, payload)
	if err != nil {
		return nil, nil, err
	}

	out := make(chan string, chunkBuffer)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)
		defer resp.Body.Close()

		reader := newSSEReader(resp.Body)
		for {
			if ctx.Err() != nil {
				return
			}

			data, rerr := reader.next()
			if rerr == io.EOF {
				return
			}
			if rerr != nil {
				errs <- utils.E(utils.CodeInterrupted, op, "stream read failed", rerr)
				return
			}

			var ev anthropicEvent
			if jerr := json.Unmarshal(data, &ev); jerr != nil {
				// Skip malformed events rather than killing the stream.
				continue
			}

			switch ev.Type {
			case "content_block_delta":
				if ev.Delta.Type == "text_delta" && ev.Delta.Text != "" {
					select {
					case out <- ev.Delta.Text:
					case <-ctx.Done():
						return
					}
				}
			case "error":
				errs <- utils.E(utils.CodeInterrupted, op, "provider error: "+ev.Error.Message, nil)
				return
			case "message_stop":
				return
			}
		}
	}()

	return out, errs, nil
}
