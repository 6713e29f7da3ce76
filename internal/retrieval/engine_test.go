package retrieval

import (
	"context"
	"strings"
	"testing"

	"shopmate/internal/embedding"
	"shopmate/internal/vectorstore"
)

// fixedEmbedder maps each text to a preset vector.
type fixedEmbedder struct {
	vectors map[string][]float32
}

func (f *fixedEmbedder) Embed(ctx context.Context, texts []string, task embedding.Task) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, ok := f.vectors[text]
		if !ok {
			v = []float32{0, 0, 1}
		}
		out[i] = v
	}
	return out, nil
}

func (f *fixedEmbedder) Model() string   { return "fixed" }
func (f *fixedEmbedder) Dimensions() int { return 3 }

func seedStore(t *testing.T) *vectorstore.Store {
	t.Helper()
	store := vectorstore.New()
	ctx := context.Background()

	docs := []vectorstore.Document{
		{ID: "product-1", Content: "Alpine two-person tent", Embedding: []float32{1, 0, 0},
			Metadata: map[string]string{"name": "Alpine Tent", "category": "camping", "price": "299.00"}},
		{ID: "product-2", Content: "Down sleeping bag", Embedding: []float32{0.9, 0.4, 0},
			Metadata: map[string]string{"name": "Down Bag", "category": "camping", "price": "189.00"}},
		{ID: "product-3", Content: "Trail running shoes", Embedding: []float32{0, 1, 0},
			Metadata: map[string]string{"name": "Trail Shoes", "category": "footwear", "price": "129.00"}},
	}
	for _, d := range docs {
		if err := store.Add(ctx, d); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	return store
}

func TestSearchDropsLowScores(t *testing.T) {
	embedder := &fixedEmbedder{vectors: map[string][]float32{
		"tent for camping": {1, 0, 0},
	}}
	engine := New(embedder, seedStore(t), 0)

	resp, err := engine.Search(context.Background(), "tent for camping", 5, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	// product-3 is orthogonal to the query and must fall below the floor.
	for _, r := range resp.Results {
		if r.ID == "product-3" {
			t.Errorf("low-score result leaked: %+v", r)
		}
		if r.Score < DefaultMinScore {
			t.Errorf("result %s below min score: %v", r.ID, r.Score)
		}
	}
	if len(resp.Results) != 2 {
		t.Errorf("got %d results, want 2", len(resp.Results))
	}
	if resp.Results[0].ID != "product-1" {
		t.Errorf("best match = %s, want product-1", resp.Results[0].ID)
	}
}

func TestSearchCustomMinScore(t *testing.T) {
	embedder := &fixedEmbedder{vectors: map[string][]float32{
		"anything": {0, 0, 1},
	}}
	engine := New(embedder, seedStore(t), 0.99)

	resp, err := engine.Search(context.Background(), "anything", 5, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("got %d results, want 0", len(resp.Results))
	}
	if !strings.Contains(resp.Context, "No relevant products found") {
		t.Errorf("empty context = %q", resp.Context)
	}
}

func TestSearchRendersContext(t *testing.T) {
	embedder := &fixedEmbedder{vectors: map[string][]float32{
		"tent": {1, 0, 0},
	}}
	engine := New(embedder, seedStore(t), 0)

	resp, err := engine.Search(context.Background(), "tent", 1, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	for _, want := range []string{"Alpine Tent", "[camping]", "$299.00", "1."} {
		if !strings.Contains(resp.Context, want) {
			t.Errorf("context missing %q:\n%s", want, resp.Context)
		}
	}
}

func TestSearchMetadataFilter(t *testing.T) {
	embedder := &fixedEmbedder{vectors: map[string][]float32{
		"gear": {0.7, 0.7, 0},
	}}
	engine := New(embedder, seedStore(t), 0.1)

	resp, err := engine.Search(context.Background(), "gear", 5, map[string]string{"category": "footwear"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, r := range resp.Results {
		if r.Metadata["category"] != "footwear" {
			t.Errorf("filter leaked category %q", r.Metadata["category"])
		}
	}
}

func TestSimilarProductsExcludesSource(t *testing.T) {
	engine := New(&fixedEmbedder{}, seedStore(t), 0)

	results, err := engine.SimilarProducts(context.Background(), "product-1", 2)
	if err != nil {
		t.Fatalf("SimilarProducts: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("no similar products")
	}
	for _, r := range results {
		if r.ID == "product-1" {
			t.Error("source document appears in its own similarity results")
		}
	}
	if results[0].ID != "product-2" {
		t.Errorf("nearest = %s, want product-2", results[0].ID)
	}
}

func TestSimilarProductsUnknownID(t *testing.T) {
	engine := New(&fixedEmbedder{}, seedStore(t), 0)
	if _, err := engine.SimilarProducts(context.Background(), "product-99", 2); err == nil {
		t.Fatal("expected error for unknown document")
	}
}
