package tools

import (
	"context"
	"fmt"
	"log/slog"

	"shopmate/internal/agent"
	"shopmate/internal/catalog"
	"shopmate/internal/chat"
	"shopmate/internal/retrieval"
)

// SearchProducts is the semantic catalog search tool.
type SearchProducts struct {
	engine *retrieval.Engine
}

func NewSearchProducts(engine *retrieval.Engine) *SearchProducts {
	return &SearchProducts{engine: engine}
}

func (s *SearchProducts) Name() string { return "search_products" }
func (s *SearchProducts) Description() string {
	return "Search the product catalog by meaning. Works for vague queries like 'something warm for camping'."
}
func (s *SearchProducts) AdminOnly() bool { return false }

func (s *SearchProducts) Schema() chat.Schema {
	return chat.ObjectSchema(map[string]chat.Property{
		"query": {
			Type:        "string",
			Description: "What the shopper is looking for, in their own words",
		},
		"category": {
			Type:        "string",
			Description: "Optional category to restrict the search to",
		},
		"limit": {
			Type:        "number",
			Description: "Maximum number of matches to return (default 5)",
		},
	}, "query")
}

func (s *SearchProducts) Execute(ctx context.Context, args map[string]any) (*agent.Result, error) {
	query := stringArg(args, "query")
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}

	var filter map[string]string
	if category := stringArg(args, "category"); category != "" {
		filter = map[string]string{"category": category}
	}

	resp, err := s.engine.Search(ctx, query, int(intArg(args, "limit")), filter)
	if err != nil {
		return nil, fmt.Errorf("searching products: %w", err)
	}

	slog.Debug("tools: product search done", "query", query, "results", len(resp.Results))
	content, err := jsonContent(resp)
	if err != nil {
		return nil, err
	}
	return &agent.Result{Content: content}, nil
}

// GetProduct looks up a single product by id.
type GetProduct struct {
	store *catalog.Store
}

func NewGetProduct(store *catalog.Store) *GetProduct {
	return &GetProduct{store: store}
}

func (g *GetProduct) Name() string { return "get_product" }
func (g *GetProduct) Description() string {
	return "Get full details for one product: description, category, price and stock."
}
func (g *GetProduct) AdminOnly() bool { return false }

func (g *GetProduct) Schema() chat.Schema {
	return chat.ObjectSchema(map[string]chat.Property{
		"product_id": {
			Type:        "number",
			Description: "Product id from a previous search result",
		},
	}, "product_id")
}

func (g *GetProduct) Execute(ctx context.Context, args map[string]any) (*agent.Result, error) {
	id := intArg(args, "product_id")
	if id == 0 {
		return nil, fmt.Errorf("product_id is required")
	}

	product, err := g.store.Product(ctx, id)
	if err != nil {
		return nil, err
	}

	content, err := jsonContent(product)
	if err != nil {
		return nil, err
	}
	return &agent.Result{Content: content}, nil
}

// GetSimilarProducts finds products close to a given one in embedding space.
type GetSimilarProducts struct {
	engine *retrieval.Engine
}

func NewGetSimilarProducts(engine *retrieval.Engine) *GetSimilarProducts {
	return &GetSimilarProducts{engine: engine}
}

func (g *GetSimilarProducts) Name() string { return "get_similar_products" }
func (g *GetSimilarProducts) Description() string {
	return "Find products similar to a given product, for alternatives and recommendations."
}
func (g *GetSimilarProducts) AdminOnly() bool { return false }

func (g *GetSimilarProducts) Schema() chat.Schema {
	return chat.ObjectSchema(map[string]chat.Property{
		"product_id": {
			Type:        "number",
			Description: "Product id to find alternatives for",
		},
		"limit": {
			Type:        "number",
			Description: "Maximum number of similar products (default 5)",
		},
	}, "product_id")
}

func (g *GetSimilarProducts) Execute(ctx context.Context, args map[string]any) (*agent.Result, error) {
	id := intArg(args, "product_id")
	if id == 0 {
		return nil, fmt.Errorf("product_id is required")
	}

	results, err := g.engine.SimilarProducts(ctx, catalog.DocumentID(id), int(intArg(args, "limit")))
	if err != nil {
		return nil, fmt.Errorf("finding similar products: %w", err)
	}

	content, err := jsonContent(map[string]any{"product_id": id, "similar": results})
	if err != nil {
		return nil, err
	}
	return &agent.Result{Content: content}, nil
}
