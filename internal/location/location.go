// Package location resolves a caller's postal code from their IP address
// so price searches default to stores near them.
package location

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultLookupURL is the public geolocation endpoint used when none is
// configured.
const DefaultLookupURL = "http://ip-api.com/json"

// Resolver maps IP addresses to postal codes, falling back to a configured
// default when the lookup fails or resolves outside the US.
type Resolver struct {
	lookupURL     string
	defaultPostal string
	httpClient    *http.Client
	logger        *zap.Logger
}

// NewResolver creates a resolver. httpClient may be nil for a default with
// a 10s timeout.
func NewResolver(lookupURL, defaultPostal string, httpClient *http.Client, logger *zap.Logger) *Resolver {
	if lookupURL == "" {
		lookupURL = DefaultLookupURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		lookupURL:     lookupURL,
		defaultPostal: defaultPostal,
		httpClient:    httpClient,
		logger:        logger,
	}
}

type lookupResponse struct {
	Status      string `json:"status"`
	CountryCode string `json:"countryCode"`
	Zip         string `json:"zip"`
}

// PostalCode resolves the postal code for one IP. Private and unparseable
// addresses, lookup failures, and non-US results all yield the default.
func (r *Resolver) PostalCode(ctx context.Context, ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil || parsed.IsLoopback() || parsed.IsPrivate() {
		return r.defaultPostal
	}

	zip, err := r.lookup(ctx, ip)
	if err != nil {
		r.logger.Warn("location.lookup_failed", zap.String("ip", ip), zap.Error(err))
		return r.defaultPostal
	}
	return zip
}

func (r *Resolver) lookup(ctx context.Context, ip string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.lookupURL+"/"+ip, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var parsed lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if parsed.Status != "success" {
		return "", fmt.Errorf("lookup status %q", parsed.Status)
	}
	if parsed.CountryCode != "US" || parsed.Zip == "" {
		return "", fmt.Errorf("no usable postal code for country %q", parsed.CountryCode)
	}
	return parsed.Zip, nil
}

// ClientIP extracts the caller's IP from proxy headers, falling back to the
// connection peer.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
		return real
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
