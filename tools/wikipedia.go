package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/colloquy-ai/colloquy/core/protocol"
)

// WikipediaName is the registered name of the knowledge-lookup tool.
const WikipediaName = "wikipedia"

const defaultWikipediaBaseURL = "https://en.wikipedia.org/w/api.php"

// WikipediaClient performs search-and-extract lookups against the MediaWiki
// action API.
type WikipediaClient struct {
	baseURL string
	client  *http.Client
}

// NewWikipediaClient creates a WikipediaClient. An empty baseURL targets
// English Wikipedia.
func NewWikipediaClient(baseURL string, timeout time.Duration) *WikipediaClient {
	if baseURL == "" {
		baseURL = defaultWikipediaBaseURL
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &WikipediaClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type wikipediaResponse struct {
	Query struct {
		Pages map[string]struct {
			Title   string `json:"title"`
			Extract string `json:"extract"`
		} `json:"pages"`
	} `json:"query"`
}

// Lookup searches for the query and returns the intro extract of the best
// matching article. An empty string means no article matched.
func (c *WikipediaClient) Lookup(ctx context.Context, query string) (string, error) {
	params := url.Values{
		"action":        {"query"},
		"format":        {"json"},
		"generator":     {"search"},
		"gsrsearch":     {query},
		"gsrlimit":      {"1"},
		"prop":          {"extracts"},
		"exintro":       {"1"},
		"explaintext":   {"1"},
		"redirects":     {"1"},
		"formatversion": {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling wikipedia: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("wikipedia returned status %d", resp.StatusCode)
	}

	var decoded wikipediaResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	for _, page := range decoded.Query.Pages {
		if page.Extract != "" {
			return fmt.Sprintf("%s\n\n%s", page.Title, page.Extract), nil
		}
	}
	return "", nil
}

// NewWikipedia creates the general knowledge-lookup tool backed by the
// given client.
func NewWikipedia(client *WikipediaClient) Entry {
	return Entry{
		Spec: protocol.Tool{
			Name:        WikipediaName,
			Description: "Looks up general knowledge on Wikipedia. Useful for facts about people, places, organizations and events.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "The topic or question to look up.",
					},
				},
				"required": []string{"query"},
			},
		},
		Handler: func(ctx context.Context, raw json.RawMessage) (Result, error) {
			var args struct {
				Query string `json:"query"`
			}
			if err := json.Unmarshal(raw, &args); err != nil {
				return Result{Content: "invalid arguments: " + err.Error(), IsError: true}, nil
			}
			if args.Query == "" {
				return Result{Content: "query is required", IsError: true}, nil
			}

			extract, err := client.Lookup(ctx, args.Query)
			if err != nil {
				return Result{}, err
			}
			if extract == "" {
				return Result{Content: "no article found for " + args.Query, IsError: true}, nil
			}
			return Result{Content: extract}, nil
		},
	}
}
