// Package retrieval composes the embedding provider and the vector store
// into the catalog search engine used both by the search_products tool and
// the catalog search endpoint.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"shopmate/internal/embedding"
	"shopmate/internal/vectorstore"
)

// DefaultMinScore is the similarity floor below which a match is treated as
// noise and dropped from the response.
const DefaultMinScore = 0.5

const snippetLen = 120

// Engine embeds queries and searches the vector store.
type Engine struct {
	embedder embedding.Provider
	store    *vectorstore.Store
	minScore float32
}

func New(embedder embedding.Provider, store *vectorstore.Store, minScore float32) *Engine {
	if minScore <= 0 {
		minScore = DefaultMinScore
	}
	return &Engine{embedder: embedder, store: store, minScore: minScore}
}

// Response is a retrieval result plus the rendered context block that gets
// spliced into a model prompt.
type Response struct {
	Query   string               `json:"query"`
	Results []vectorstore.Result `json:"results"`
	Context string               `json:"context"`
}

// Search embeds the query with query intent, scans the store, drops matches
// below the minimum score, and renders a numbered human-readable summary of
// the survivors. Raw store rows below the threshold never reach the caller.
func (e *Engine) Search(ctx context.Context, query string, topK int, filter map[string]string) (*Response, error) {
	if topK <= 0 {
		topK = 5
	}

	vecs, err := e.embedder.Embed(ctx, []string{query}, embedding.TaskQuery)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("embedding query: empty response")
	}

	raw := e.store.Search(vecs[0], topK, filter)

	results := make([]vectorstore.Result, 0, len(raw))
	for _, r := range raw {
		if r.Score >= e.minScore {
			results = append(results, r)
		}
	}
	slog.Debug("retrieval: search done",
		"query", query, "raw", len(raw), "kept", len(results), "min_score", e.minScore)

	return &Response{
		Query:   query,
		Results: results,
		Context: renderContext(query, results),
	}, nil
}

// SimilarProducts searches with a stored document's own vector, asking for
// one extra row so the source document can be excluded from the result set.
func (e *Engine) SimilarProducts(ctx context.Context, id string, topK int) ([]vectorstore.Result, error) {
	if topK <= 0 {
		topK = 5
	}

	doc, ok := e.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("document not found: %s", id)
	}

	raw := e.store.Search(doc.Embedding, topK+1, nil)
	results := make([]vectorstore.Result, 0, topK)
	for _, r := range raw {
		if r.ID == id {
			continue
		}
		results = append(results, r)
		if len(results) == topK {
			break
		}
	}
	return results, nil
}

func renderContext(query string, results []vectorstore.Result) string {
	if len(results) == 0 {
		return fmt.Sprintf("No relevant products found for %q.", query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Products relevant to %q:\n", query)
	for i, r := range results {
		name := r.Metadata["name"]
		if name == "" {
			name = r.ID
		}
		fmt.Fprintf(&b, "%d. %s", i+1, name)
		if cat := r.Metadata["category"]; cat != "" {
			fmt.Fprintf(&b, " [%s]", cat)
		}
		if price := r.Metadata["price"]; price != "" {
			fmt.Fprintf(&b, " $%s", price)
		}
		fmt.Fprintf(&b, " (relevance %.0f%%)\n", r.Score*100)
		if snippet := snippet(r.Content); snippet != "" {
			fmt.Fprintf(&b, "   %s\n", snippet)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func snippet(content string) string {
	content = strings.Join(strings.Fields(content), " ")
	if len(content) > snippetLen {
		return content[:snippetLen] + "..."
	}
	return content
}
