package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/mingainspire/better-bolt/internal/utils"
)

// streamingClient is shared by all HTTP adapters. No client timeout: stream
// lifetime is controlled through the request context.
var streamingClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	},
}

// openStream POSTs a JSON payload and returns the open response body for
// incremental reading. Transport failure and non-200 statuses are reported as
// a whole-call error: UNAVAILABLE for connection problems and 5xx, REJECTED
// for 4xx.
func openStream(ctx context.Context, op, url string, headers map[string]string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := streamingClient.Do(req)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "provider unreachable", err)
	}

	if resp.StatusCode != http.StatusOK {
		// Small read only; error bodies are short and must not be streamed.
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()

		code := utils.CodeUnavailable
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			code = utils.CodeRejected
		}
		return nil, utils.E(code, op, "provider returned "+resp.Status+": "+string(msg), nil)
	}

	return resp, nil
}
