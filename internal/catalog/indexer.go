package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"shopmate/internal/embedding"
	"shopmate/internal/vectorstore"
)

// Indexer turns catalog products into vector documents.
type Indexer struct {
	store    *Store
	embedder embedding.Provider
	vectors  *vectorstore.Store
}

func NewIndexer(store *Store, embedder embedding.Provider, vectors *vectorstore.Store) *Indexer {
	return &Indexer{store: store, embedder: embedder, vectors: vectors}
}

// IndexAll embeds every product with document intent and upserts the results
// under stable "product-<id>" ids, so re-running the indexer refreshes the
// index in place.
func (ix *Indexer) IndexAll(ctx context.Context) (int, error) {
	products, err := ix.store.Products(ctx)
	if err != nil {
		return 0, err
	}
	if len(products) == 0 {
		return 0, nil
	}

	texts := make([]string, len(products))
	for i, p := range products {
		texts[i] = embedText(p)
	}

	vecs, err := ix.embedder.Embed(ctx, texts, embedding.TaskDocument)
	if err != nil {
		return 0, fmt.Errorf("embedding products: %w", err)
	}
	if len(vecs) != len(products) {
		return 0, fmt.Errorf("embedding products: got %d vectors for %d products", len(vecs), len(products))
	}

	docs := make([]vectorstore.Document, len(products))
	for i, p := range products {
		docs[i] = vectorstore.Document{
			ID:        DocumentID(p.ID),
			Content:   texts[i],
			Embedding: vecs[i],
			Metadata: map[string]string{
				"product_id": strconv.FormatInt(p.ID, 10),
				"name":       p.Name,
				"category":   p.Category,
				"price":      strconv.FormatFloat(p.Price, 'f', 2, 64),
			},
		}
	}

	if err := ix.vectors.AddBatch(ctx, docs); err != nil {
		return 0, err
	}
	slog.Info("catalog indexed", "products", len(docs), "model", ix.embedder.Model())
	return len(docs), nil
}

// DocumentID is the vector-document id for a product.
func DocumentID(productID int64) string {
	return fmt.Sprintf("product-%d", productID)
}

func embedText(p Product) string {
	return fmt.Sprintf("%s. Category: %s. %s", p.Name, p.Category, p.Description)
}
