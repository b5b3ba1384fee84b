package llm

import (
	"context"
	"errors"
	"testing"
)

type mockTextGenerator struct {
	response string
	err      error
	calls    int
}

func (m *mockTextGenerator) GenerateContent(_ context.Context, _ string) (string, error) {
	m.calls++
	return m.response, m.err
}

func TestNormalizeWithLLM(t *testing.T) {
	gen := &mockTextGenerator{
		response: `{"name":"Flour","canonical_name":"flour","base_unit":"g","base_unit_qty":1,"quantity":240,"unit":"cups"}`,
	}
	n := NewNormalizer(gen, "test-model", nil, 10)

	got, err := n.Normalize(context.Background(), "2 cups flour")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.CanonicalName != "flour" {
		t.Errorf("expected canonical name 'flour', got %q", got.CanonicalName)
	}
	if got.Quantity != 240 {
		t.Errorf("expected quantity 240, got %v", got.Quantity)
	}
}

func TestNormalizeStripsMarkdownFences(t *testing.T) {
	gen := &mockTextGenerator{
		response: "```json\n{\"name\":\"Egg\",\"canonical_name\":\"egg\",\"base_unit\":\"count\",\"base_unit_qty\":1,\"quantity\":3,\"unit\":\"\"}\n```",
	}
	n := NewNormalizer(gen, "test-model", nil, 10)

	got, err := n.Normalize(context.Background(), "3 eggs")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.CanonicalName != "egg" {
		t.Errorf("expected canonical name 'egg', got %q", got.CanonicalName)
	}
}

func TestNormalizeCachesResults(t *testing.T) {
	gen := &mockTextGenerator{
		response: `{"name":"Milk","canonical_name":"milk","base_unit":"ml","base_unit_qty":1,"quantity":500,"unit":"ml"}`,
	}
	n := NewNormalizer(gen, "test-model", nil, 10)

	for i := 0; i < 3; i++ {
		if _, err := n.Normalize(context.Background(), "500 ml milk"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}
	if gen.calls != 1 {
		t.Errorf("expected 1 generator call, got %d", gen.calls)
	}
}

func TestNormalizeGeneratorError(t *testing.T) {
	gen := &mockTextGenerator{err: errors.New("quota exceeded")}
	n := NewNormalizer(gen, "test-model", nil, 10)

	if _, err := n.Normalize(context.Background(), "1 cup sugar"); err == nil {
		t.Fatal("expected an error, got nil")
	}
}

func TestNormalizeRejectsUnusableResponse(t *testing.T) {
	gen := &mockTextGenerator{
		response: `{"name":"","canonical_name":"","quantity":0}`,
	}
	n := NewNormalizer(gen, "test-model", nil, 10)

	if _, err := n.Normalize(context.Background(), "mystery"); err == nil {
		t.Fatal("expected an error for unusable response, got nil")
	}
}

func TestNormalizeEmptyText(t *testing.T) {
	n := NewNormalizer(nil, "", nil, 10)
	if _, err := n.Normalize(context.Background(), "   "); err == nil {
		t.Fatal("expected an error for empty text, got nil")
	}
}

func TestHeuristicNormalize(t *testing.T) {
	n := NewNormalizer(nil, "", nil, 10)

	tests := []struct {
		raw       string
		canonical string
		quantity  float64
		baseUnit  string
	}{
		{"2 cups flour", "flour", 2, "cups"},
		{"3 eggs", "eggs", 3, "count"},
		{"1/2 tsp salt", "salt", 0.5, "tsp"},
		{"butter", "butter", 1, "count"},
	}
	for _, tt := range tests {
		got, err := n.Normalize(context.Background(), tt.raw)
		if err != nil {
			t.Fatalf("%q: expected no error, got %v", tt.raw, err)
		}
		if got.CanonicalName != tt.canonical {
			t.Errorf("%q: expected canonical %q, got %q", tt.raw, tt.canonical, got.CanonicalName)
		}
		if got.Quantity != tt.quantity {
			t.Errorf("%q: expected quantity %v, got %v", tt.raw, tt.quantity, got.Quantity)
		}
		if got.BaseUnit != tt.baseUnit {
			t.Errorf("%q: expected base unit %q, got %q", tt.raw, tt.baseUnit, got.BaseUnit)
		}
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"{\"a\":1}", "{\"a\":1}"},
		{"```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"```\n{\"a\":1}\n```", "{\"a\":1}"},
	}
	for _, tt := range tests {
		if got := StripFences(tt.in); got != tt.want {
			t.Errorf("StripFences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
