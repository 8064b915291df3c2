// Package registry is the static catalog of providers and their models.
package registry

import (
	"context"

	"github.com/mingainspire/better-bolt/internal/models"
)

const (
	DefaultProvider = "Anthropic"
)

// catalog lists every known model. Provider order here fixes the order
// returned by Providers (first-seen). The empty-name Ollama entry keeps the
// provider in the catalog while its models are discovered live from the local
// daemon.
var catalog = []models.ModelDescriptor{
	{Provider: "Anthropic", Name: "claude-3-5-sonnet-20240620", Label: "Claude 3.5 Sonnet"},
	{Provider: "Anthropic", Name: "claude-3-opus-20240229", Label: "Claude 3 Opus"},
	{Provider: "Anthropic", Name: "claude-3-sonnet-20240229", Label: "Claude 3 Sonnet"},
	{Provider: "Anthropic", Name: "claude-3-haiku-20240307", Label: "Claude 3 Haiku"},
	{Provider: "OpenAI", Name: "gpt-4o", Label: "GPT-4o"},
	{Provider: "OpenAI", Name: "gpt-4-turbo", Label: "GPT-4 Turbo"},
	{Provider: "OpenAI", Name: "gpt-4", Label: "GPT-4"},
	{Provider: "OpenAI", Name: "gpt-3.5-turbo", Label: "GPT-3.5 Turbo"},
	{Provider: "Google", Name: "gemini-1.5-flash", Label: "Gemini 1.5 Flash"},
	{Provider: "Google", Name: "gemini-1.5-pro", Label: "Gemini 1.5 Pro"},
	{Provider: "Groq", Name: "llama-3.1-70b-versatile", Label: "Llama 3.1 70B (Groq)"},
	{Provider: "Groq", Name: "llama-3.1-8b-instant", Label: "Llama 3.1 8B (Groq)"},
	{Provider: "Groq", Name: "mixtral-8x7b-32768", Label: "Mixtral 8x7B (Groq)"},
	{Provider: "OpenRouter", Name: "anthropic/claude-3.5-sonnet", Label: "Claude 3.5 Sonnet (OpenRouter)"},
	{Provider: "OpenRouter", Name: "openai/gpt-4o", Label: "GPT-4o (OpenRouter)"},
	{Provider: "OpenRouter", Name: "google/gemini-flash-1.5", Label: "Gemini Flash 1.5 (OpenRouter)"},
	{Provider: "OpenRouter", Name: "meta-llama/llama-3.1-70b-instruct", Label: "Llama 3.1 70B (OpenRouter)"},
	{Provider: "Deepseek", Name: "deepseek-chat", Label: "Deepseek Chat"},
	{Provider: "Deepseek", Name: "deepseek-coder", Label: "Deepseek Coder"},
	{Provider: "Mistral", Name: "mistral-large-latest", Label: "Mistral Large"},
	{Provider: "Mistral", Name: "open-mixtral-8x22b", Label: "Mixtral 8x22B"},
	{Provider: "Mistral", Name: "open-mistral-7b", Label: "Mistral 7B"},
	{Provider: "Ollama", Name: "", Label: ""},
}

type Registry struct {
	static []models.ModelDescriptor
	ollama *ollamaSource
}

func New() *Registry {
	return &Registry{static: catalog}
}

// Providers returns provider ids in first-seen catalog order.
func (r *Registry) Providers() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, d := range r.static {
		if _, ok := seen[d.Provider]; ok {
			continue
		}
		seen[d.Provider] = struct{}{}
		out = append(out, d.Provider)
	}
	return out
}

// Models returns the catalog entries for one provider, excluding descriptors
// without a model name. Ollama models come from live discovery when wired.
func (r *Registry) Models(ctx context.Context, provider string) []models.ModelDescriptor {
	var out []models.ModelDescriptor
	for _, d := range r.static {
		if d.Provider == provider && d.Name != "" {
			out = append(out, d)
		}
	}
	if r.ollama != nil && provider == ollamaProvider {
		out = append(out, r.ollama.list(ctx)...)
	}
	return out
}

// DefaultModel is the first catalog entry for the provider, absent when the
// provider has no usable models.
func (r *Registry) DefaultModel(ctx context.Context, provider string) (models.ModelDescriptor, bool) {
	ms := r.Models(ctx, provider)
	if len(ms) == 0 {
		return models.ModelDescriptor{}, false
	}
	return ms[0], true
}

// Resolve finds the descriptor for a (provider, model) pair.
func (r *Registry) Resolve(ctx context.Context, provider, model string) (models.ModelDescriptor, bool) {
	for _, d := range r.Models(ctx, provider) {
		if d.Name == model {
			return d, true
		}
	}
	return models.ModelDescriptor{}, false
}
