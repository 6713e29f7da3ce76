package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"shopmate/internal/chat"
)

type fakeHandler struct {
	name      string
	adminOnly bool
	execute   func(ctx context.Context, args map[string]any) (*Result, error)
}

func (f *fakeHandler) Name() string        { return f.name }
func (f *fakeHandler) Description() string { return "fake " + f.name }
func (f *fakeHandler) AdminOnly() bool     { return f.adminOnly }
func (f *fakeHandler) Schema() chat.Schema {
	return chat.ObjectSchema(map[string]chat.Property{})
}
func (f *fakeHandler) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	if f.execute != nil {
		return f.execute(ctx, args)
	}
	return &Result{Content: `{"ok":true}`}, nil
}

func errorMessage(t *testing.T, content string) string {
	t.Helper()
	var payload map[string]string
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		t.Fatalf("result content is not a JSON object: %q", content)
	}
	return payload["error"]
}

func TestRegistryListFiltersAdminTools(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeHandler{name: "search_products"})
	r.Register(&fakeHandler{name: "get_sales_dashboard", adminOnly: true})

	customer := r.List(chat.CallerCustomer)
	if len(customer) != 1 || customer[0].Name != "search_products" {
		t.Errorf("customer list = %+v, want only search_products", customer)
	}

	admin := r.List(chat.CallerAdmin)
	if len(admin) != 2 {
		t.Errorf("admin list has %d tools, want 2", len(admin))
	}
}

func TestRegistryListKeepsRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"c", "a", "b"} {
		r.Register(&fakeHandler{name: name})
	}

	var got []string
	for _, tool := range r.List(chat.CallerCustomer) {
		got = append(got, tool.Name)
	}
	want := []string{"c", "a", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("list order = %v, want %v", got, want)
		}
	}
}

func TestRegistryExecuteUnknownTool(t *testing.T) {
	r := NewRegistry()

	res := r.Execute(context.Background(), chat.CallerCustomer, "nope", nil)
	if msg := errorMessage(t, res.Content); !strings.Contains(msg, "unknown tool: nope") {
		t.Errorf("got error %q, want unknown tool", msg)
	}
}

func TestRegistryExecuteBlocksAdminToolForCustomer(t *testing.T) {
	r := NewRegistry()
	called := false
	r.Register(&fakeHandler{
		name:      "get_sales_dashboard",
		adminOnly: true,
		execute: func(ctx context.Context, args map[string]any) (*Result, error) {
			called = true
			return &Result{Content: "{}"}, nil
		},
	})

	res := r.Execute(context.Background(), chat.CallerCustomer, "get_sales_dashboard", nil)
	if msg := errorMessage(t, res.Content); !strings.Contains(msg, "Admin only") {
		t.Errorf("got error %q, want Admin only", msg)
	}
	if called {
		t.Error("handler ran despite the role check")
	}

	res = r.Execute(context.Background(), chat.CallerAdmin, "get_sales_dashboard", nil)
	if !called {
		t.Error("handler did not run for admin")
	}
	if res.Content != "{}" {
		t.Errorf("got content %q", res.Content)
	}
}

func TestRegistryExecuteWrapsHandlerError(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeHandler{
		name: "get_product",
		execute: func(ctx context.Context, args map[string]any) (*Result, error) {
			return nil, errors.New("product not found: 42")
		},
	})

	res := r.Execute(context.Background(), chat.CallerCustomer, "get_product", nil)
	if msg := errorMessage(t, res.Content); !strings.Contains(msg, "product not found: 42") {
		t.Errorf("got error %q", msg)
	}
}

func TestRegistryExecutePropagatesRole(t *testing.T) {
	r := NewRegistry()
	var seen chat.Caller
	r.Register(&fakeHandler{
		name: "whoami",
		execute: func(ctx context.Context, args map[string]any) (*Result, error) {
			seen = RoleFromContext(ctx)
			return &Result{Content: "{}"}, nil
		},
	})

	r.Execute(context.Background(), chat.CallerAdmin, "whoami", nil)
	if seen != chat.CallerAdmin {
		t.Errorf("handler saw role %q, want admin", seen)
	}
}
