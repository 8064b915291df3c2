package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/mingainspire/better-bolt/internal/utils"
)

// OpenAILike streams completions from any chat-completions-compatible API.
// OpenAI, Groq, OpenRouter, Deepseek, and Mistral all speak this wire format;
// only the base URL, credential, and a few extra headers differ.
type OpenAILike struct {
	name    string
	baseURL string
	apiKey  string // server default, used when the request carries no key
	headers map[string]string
}

func NewOpenAILike(name, baseURL, apiKey string, headers map[string]string) *OpenAILike {
	return &OpenAILike{name: name, baseURL: baseURL, apiKey: apiKey, headers: headers}
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (p *OpenAILike) StreamText(ctx context.Context, req Request) (<-chan string, <-chan error, error) {
	op := p.name + ".StreamText"

	key := req.APIKey
	if key == "" {
		key = p.apiKey
	}
	if key == "" {
		return nil, nil, utils.E(utils.CodeRejected, op, "no API key configured for "+p.name, nil)
	}

	headers := map[string]string{
		"Authorization": "Bearer " + key,
		"Accept":        "text/event-stream",
	}
	for k, v := range p.headers {
		headers[k] = v
	}
	payload := chatCompletionRequest{
		Model:    req.Model,
		Messages: []chatMessage{{Role: "user", Content: req.Prompt}},
		Stream:   true,
	}

	resp, err := openStream(ctx, op, p.baseURL+"/chat/completions", headers, payload)
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

			if bytes.Equal(data, []byte("[DONE]")) {
				return
			}

			var chunk chatCompletionChunk
			if jerr := json.Unmarshal(data, &chunk); jerr != nil {
				continue
			}
			if len(chunk.Choices) == 0 {
				continue
			}

			if text := chunk.Choices[0].Delta.Content; text != "" {
				select {
				case out <- text:
				case <-ctx.Done():
					return
				}
			}
			if chunk.Choices[0].FinishReason != "" {
				return
			}
		}
	}()

	return out, errs, nil
}
