package config

import "os"

// Providers carries the server-side default credentials and endpoints for
// every supported backend. A missing key is not an error: clients may bring
// their own key per provider, and Ollama needs none.
type Providers struct {
	AnthropicAPIKey  string
	OpenAIAPIKey     string
	GroqAPIKey       string
	OpenRouterAPIKey string
	DeepseekAPIKey   string
	MistralAPIKey    string

	OllamaBaseURL string

	GoogleProject  string
	GoogleLocation string
}

func LoadProviders() Providers {
	p := Providers{
		AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		GroqAPIKey:       os.Getenv("GROQ_API_KEY"),
		OpenRouterAPIKey: os.Getenv("OPEN_ROUTER_API_KEY"),
		DeepseekAPIKey:   os.Getenv("DEEPSEEK_API_KEY"),
		MistralAPIKey:    os.Getenv("MISTRAL_API_KEY"),
		OllamaBaseURL:    os.Getenv("OLLAMA_API_BASE_URL"),
		GoogleProject:    os.Getenv("GOOGLE_CLOUD_PROJECT"),
		GoogleLocation:   os.Getenv("GOOGLE_CLOUD_LOCATION"),
	}
	if p.OllamaBaseURL == "" {
		p.OllamaBaseURL = "http://localhost:11434"
	}
	if p.GoogleLocation == "" {
		p.GoogleLocation = "us-central1"
	}
	return p
}
