package models

// Artifact is a saved visual breakdown. The list is append-only and lives
// independently of any chat session.
type Artifact struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}
