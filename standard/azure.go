package standard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// AzureMetadata queries the Azure instance metadata service. The batch is
// the decoded metadata document.
type AzureMetadata struct {
	Client *http.Client
	URL    string
}

// Name implements registry.Resolver.
func (a AzureMetadata) Name() string { return "azure:" + a.URL }

// Resolve implements registry.Resolver.
func (a AzureMetadata) Resolve(ctx context.Context) (map[string]any, error) {
	if a.Client == nil {
		return nil, fmt.Errorf("no HTTP client for %s", a.URL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Metadata", "true")

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var metadata map[string]any
	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	return metadata, nil
}
