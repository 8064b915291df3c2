package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mingainspire/better-bolt/internal/cache"
	"github.com/mingainspire/better-bolt/internal/models"
)

const (
	ollamaProvider  = "Ollama"
	ollamaModelsKey = "registry:ollama:models"
	ollamaModelsTTL = 60 * time.Second
)

// ollamaSource discovers locally installed Ollama models via GET /api/tags.
// Results are cached with a short TTL so browsing the model selector does not
// hammer the daemon. Discovery failure just means an empty Ollama list; the
// static catalog stays usable.
type ollamaSource struct {
	baseURL string
	cache   cache.Cache // nil disables caching
	client  *http.Client
	log     *logrus.Logger
}

// WithOllama wires live Ollama model discovery into the registry.
func (r *Registry) WithOllama(baseURL string, c cache.Cache, log *logrus.Logger) *Registry {
	r.ollama = &ollamaSource{
		baseURL: baseURL,
		cache:   c,
		client:  &http.Client{Timeout: 5 * time.Second},
		log:     log,
	}
	return r
}

func (o *ollamaSource) list(ctx context.Context) []models.ModelDescriptor {
	var out []models.ModelDescriptor

	if o.cache != nil {
		if hit, err := o.cache.GetJSON(ctx, ollamaModelsKey, &out); err == nil && hit {
			return out
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return nil
	}
	resp, err := o.client.Do(req)
	if err != nil {
		o.log.WithError(err).Debug("ollama model discovery failed")
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		o.log.WithField("status", resp.StatusCode).Debug("ollama model discovery failed")
		return nil
	}

	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		o.log.WithError(err).Debug("ollama model discovery returned bad JSON")
		return nil
	}

	for _, m := range tags.Models {
		if m.Name == "" {
			continue
		}
		out = append(out, models.ModelDescriptor{
			Provider: ollamaProvider,
			Name:     m.Name,
			Label:    m.Name + " (Ollama)",
		})
	}

	if o.cache != nil && len(out) > 0 {
		if err := o.cache.SetJSON(ctx, ollamaModelsKey, out, ollamaModelsTTL); err != nil {
			o.log.WithError(err).Debug("failed to cache ollama model list")
		}
	}
	return out
}
