package coref

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// label normalization from common NER tag sets to resolver categories.
var labelCategories = map[string]string{
	"PERSON":       CategoryPerson,
	"PER":          CategoryPerson,
	"ORG":          CategoryOrganization,
	"ORGANIZATION": CategoryOrganization,
	"PRODUCT":      CategoryProduct,
	"GPE":          CategoryLocation,
	"LOC":          CategoryLocation,
	"LOCATION":     CategoryLocation,
}

// HTTPRecognizer calls a NER sidecar over HTTP. The sidecar accepts
// POST /entities with {"text": ...} and answers
// {"entities": [{"text": ..., "label": ...}]} in document order.
type HTTPRecognizer struct {
	baseURL string
	client  *http.Client
}

// NewHTTPRecognizer creates an HTTPRecognizer for the sidecar at baseURL.
func NewHTTPRecognizer(baseURL string, timeout time.Duration) *HTTPRecognizer {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &HTTPRecognizer{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type recognizeRequest struct {
	Text string `json:"text"`
}

type recognizeResponse struct {
	Entities []struct {
		Text  string `json:"text"`
		Label string `json:"label"`
	} `json:"entities"`
}

// Recognize returns the entities found in text, with sidecar labels
// normalized to resolver categories. Unknown labels pass through unchanged
// so the resolver's category filter can ignore them.
func (r *HTTPRecognizer) Recognize(ctx context.Context, text string) ([]Entity, error) {
	body, err := json.Marshal(recognizeRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/entities", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling recognizer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("recognizer returned status %d", resp.StatusCode)
	}

	var decoded recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	entities := make([]Entity, 0, len(decoded.Entities))
	for _, e := range decoded.Entities {
		category := e.Label
		if normalized, ok := labelCategories[e.Label]; ok {
			category = normalized
		}
		entities = append(entities, Entity{Text: e.Text, Category: category})
	}
	return entities, nil
}
