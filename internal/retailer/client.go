// Package retailer fetches live grocery prices. The primary path is a JSON
// search API; when no API is configured, an HTML listing scraper stands in.
package retailer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Product is one search result from a retailer.
type Product struct {
	Name         string  `json:"name"`
	Brand        string  `json:"brand,omitempty"`
	Size         string  `json:"size,omitempty"`
	Price        float64 `json:"price"`
	PricePerUnit string  `json:"price_per_unit,omitempty"`
	RetailerSlug string  `json:"retailer_slug,omitempty"`
}

// Store is one retailer location serving a postal code.
type Store struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Client searches retailer catalogs.
type Client interface {
	SearchProducts(ctx context.Context, query, postalCode string) ([]Product, error)
	GetStores(ctx context.Context, postalCode string) ([]Store, error)
}

// APIClient talks to the JSON search API.
type APIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewAPIClient creates an API client. httpClient may be nil for a default
// with a 30s timeout.
func NewAPIClient(baseURL, apiKey string, httpClient *http.Client) *APIClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &APIClient{baseURL: baseURL, apiKey: apiKey, httpClient: httpClient}
}

type searchResponse struct {
	Products []Product `json:"products"`
}

type storesResponse struct {
	Stores []Store `json:"stores"`
}

// SearchProducts queries the retailer for products matching an ingredient
// name near a postal code.
func (c *APIClient) SearchProducts(ctx context.Context, query, postalCode string) ([]Product, error) {
	endpoint := fmt.Sprintf("%s/v1/products/search?query=%s&postal_code=%s",
		c.baseURL, url.QueryEscape(query), url.QueryEscape(postalCode))

	var parsed searchResponse
	if err := c.getJSON(ctx, endpoint, &parsed); err != nil {
		return nil, fmt.Errorf("failed to search products for %q: %w", query, err)
	}
	return parsed.Products, nil
}

// GetStores lists retailer locations serving a postal code.
func (c *APIClient) GetStores(ctx context.Context, postalCode string) ([]Store, error) {
	endpoint := fmt.Sprintf("%s/v1/stores?postal_code=%s", c.baseURL, url.QueryEscape(postalCode))

	var parsed storesResponse
	if err := c.getJSON(ctx, endpoint, &parsed); err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	return parsed.Stores, nil
}

func (c *APIClient) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
