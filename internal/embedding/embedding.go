package embedding

import "context"

// Task signals the intent of an embedding request. Some models produce
// different vectors for documents being indexed vs queries being matched.
type Task string

const (
	TaskDocument Task = "document"
	TaskQuery    Task = "query"
)

// Provider generates vector embeddings for text.
type Provider interface {
	Embed(ctx context.Context, texts []string, task Task) ([][]float32, error)
	Model() string
	Dimensions() int
}
