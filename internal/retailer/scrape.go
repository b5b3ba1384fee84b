package retailer

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// HTMLClient scrapes a retailer's public product listing pages. Slower and
// more fragile than the API, it keeps planning possible when no API key is
// configured.
type HTMLClient struct {
	baseURL    string
	slug       string
	httpClient *http.Client
}

// NewHTMLClient creates an HTML listing client for one retailer site.
func NewHTMLClient(baseURL, slug string, httpClient *http.Client) *HTMLClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTMLClient{baseURL: baseURL, slug: slug, httpClient: httpClient}
}

var priceRe = regexp.MustCompile(`[\d,]+\.?\d*`)

// SearchProducts fetches the listing page for a search term and extracts
// product cards. The postal code is passed through as a query parameter;
// the site decides whether to honor it.
func (c *HTMLClient) SearchProducts(ctx context.Context, query, postalCode string) ([]Product, error) {
	endpoint := fmt.Sprintf("%s/search?q=%s&postal_code=%s",
		c.baseURL, url.QueryEscape(query), url.QueryEscape(postalCode))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; tandem-recipes)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listing for %q: %w", query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d for %q", resp.StatusCode, query)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing html: %w", err)
	}
	return c.extractProducts(doc), nil
}

// GetStores is not available through listing pages; the client reports its
// own slug as the single store.
func (c *HTMLClient) GetStores(_ context.Context, _ string) ([]Store, error) {
	return []Store{{Name: c.slug, Slug: c.slug}}, nil
}

func (c *HTMLClient) extractProducts(doc *goquery.Document) []Product {
	var products []Product
	doc.Find(".product-card").Each(func(_ int, card *goquery.Selection) {
		name := strings.TrimSpace(card.Find(".product-name").First().Text())
		if name == "" {
			return
		}
		price, ok := parsePrice(card.Find(".product-price").First().Text())
		if !ok {
			return
		}
		products = append(products, Product{
			Name:         name,
			Brand:        strings.TrimSpace(card.Find(".product-brand").First().Text()),
			Size:         strings.TrimSpace(card.Find(".product-size").First().Text()),
			Price:        price,
			PricePerUnit: strings.TrimSpace(card.Find(".product-unit-price").First().Text()),
			RetailerSlug: c.slug,
		})
	})
	return products
}

func parsePrice(text string) (float64, bool) {
	match := priceRe.FindString(text)
	if match == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil || value <= 0 {
		return 0, false
	}
	return value, true
}
