package retailer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIClientSearchProducts(t *testing.T) {
	var gotKey, gotQuery, gotPostal string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		gotQuery = r.URL.Query().Get("query")
		gotPostal = r.URL.Query().Get("postal_code")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"products":[{"name":"Pasta 1kg","brand":"Barilla","size":"1 kg","price":2.5,"retailer_slug":"acme"}]}`))
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, "secret-key", srv.Client())
	products, err := c.SearchProducts(context.Background(), "pasta", "10001")
	require.NoError(t, err)

	assert.Equal(t, "secret-key", gotKey)
	assert.Equal(t, "pasta", gotQuery)
	assert.Equal(t, "10001", gotPostal)
	require.Len(t, products, 1)
	assert.Equal(t, "Pasta 1kg", products[0].Name)
	assert.InDelta(t, 2.5, products[0].Price, 1e-9)
}

func TestAPIClientGetStores(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"stores":[{"name":"Acme Market","slug":"acme"},{"name":"Fresh Co","slug":"fresh-co"}]}`))
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, "", srv.Client())
	stores, err := c.GetStores(context.Background(), "10001")
	require.NoError(t, err)
	require.Len(t, stores, 2)
	assert.Equal(t, "acme", stores[0].Slug)
}

func TestAPIClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, "", srv.Client())
	_, err := c.SearchProducts(context.Background(), "pasta", "10001")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

const listingHTML = `
<html><body>
  <div class="product-card">
    <span class="product-name">Spaghetti 500g</span>
    <span class="product-brand">Casa Mia</span>
    <span class="product-size">500 g</span>
    <span class="product-price">$1.89</span>
    <span class="product-unit-price">$0.38/100g</span>
  </div>
  <div class="product-card">
    <span class="product-name">Penne 1kg</span>
    <span class="product-price">$3.49</span>
  </div>
  <div class="product-card">
    <span class="product-name">Sold Out Fusilli</span>
    <span class="product-price">Unavailable</span>
  </div>
</body></html>`

func TestHTMLClientSearchProducts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pasta", r.URL.Query().Get("q"))
		w.Write([]byte(listingHTML))
	}))
	defer srv.Close()

	c := NewHTMLClient(srv.URL, "acme", srv.Client())
	products, err := c.SearchProducts(context.Background(), "pasta", "10001")
	require.NoError(t, err)

	// The unavailable card has no parseable price and is dropped.
	require.Len(t, products, 2)
	assert.Equal(t, "Spaghetti 500g", products[0].Name)
	assert.Equal(t, "Casa Mia", products[0].Brand)
	assert.InDelta(t, 1.89, products[0].Price, 1e-9)
	assert.Equal(t, "acme", products[0].RetailerSlug)
	assert.InDelta(t, 3.49, products[1].Price, 1e-9)
}

func TestHTMLClientGetStores(t *testing.T) {
	c := NewHTMLClient("http://unused", "acme", nil)
	stores, err := c.GetStores(context.Background(), "10001")
	require.NoError(t, err)
	require.Len(t, stores, 1)
	assert.Equal(t, "acme", stores[0].Slug)
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in    string
		want  float64
		valid bool
	}{
		{"$1.89", 1.89, true},
		{"1,299.00", 1299.00, true},
		{"Unavailable", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := parsePrice(tt.in)
		assert.Equal(t, tt.valid, ok, "parsePrice(%q)", tt.in)
		if tt.valid {
			assert.InDelta(t, tt.want, got, 1e-9, "parsePrice(%q)", tt.in)
		}
	}
}
