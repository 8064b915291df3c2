package models

// ModelDescriptor identifies one model offered by a provider. Loaded from the
// static catalog at startup (plus live Ollama discovery); never mutated.
type ModelDescriptor struct {
	Provider string `json:"provider"`
	Name     string `json:"name"`
	Label    string `json:"label"`
}
