package providers

import "context"

// Provider is the interface all inference backends must implement.
type Provider interface {
	// Chat sends a conversation to the model and returns its response.
	// The model field in the request selects between text and vision models.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// Name returns the provider identifier (e.g. "ollama").
	Name() string
}

// ChatRequest contains the input for a Chat call.
type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

// ChatResponse is the result from a model call.
type ChatResponse struct {
	Content string `json:"content"`
}

// Message represents one conversation entry.
type Message struct {
	Role    string   `json:"role"` // "system", "user", "assistant"
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"` // base64-encoded images for vision models
}
