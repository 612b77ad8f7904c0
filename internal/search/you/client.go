// internal/search/you/client.go
package you

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	commonhttp "market-mentor/internal/common/http"
	"market-mentor/internal/common/logger"
	"market-mentor/internal/common/metrics"
	"market-mentor/internal/search"
)

const (
	ProviderName      = "you"
	DefaultMaxResults = 15
	// upstream cap on num_web_results
	maxWebResults = 20
)

// Layout is the specialized search rendering.
var Layout = search.Layout{
	EmptyText:       "No relevant You.com search results found.",
	WithDescription: true,
}

// Client queries the You.com web search index.
type Client struct {
	config *Config
	client *commonhttp.Client
	logger logger.Logger
}

func NewClient(config *Config, log logger.Logger) *Client {
	return &Client{
		config: config,
		client: commonhttp.NewClient(config.Timeout),
		logger: log.With(map[string]interface{}{
			"component": "search",
			"provider":  ProviderName,
		}),
	}
}

func (c *Client) Name() string {
	return ProviderName
}

func (c *Client) Search(ctx context.Context, query string, opts search.Options) search.ResultSet {
	set := c.search(ctx, query, opts)
	metrics.SearchRequests.WithLabelValues(ProviderName, set.Status.String()).Inc()

	switch set.Status {
	case search.StatusFailed:
		c.logger.Error("you.com search failed", map[string]interface{}{
			"query": query,
			"error": set.Err.Error(),
		})
	case search.StatusEmpty:
		c.logger.Info("no relevant you.com search results found", map[string]interface{}{
			"query": query,
		})
	default:
		c.logger.Info("you.com search completed", map[string]interface{}{
			"query":       query,
			"resultCount": len(set.Results),
		})
	}
	return set
}

func (c *Client) search(ctx context.Context, query string, opts search.Options) search.ResultSet {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	count := opts.Count
	if count <= 0 {
		count = c.config.MaxResults
	}

	searchURL, err := c.buildSearchURL(query, count)
	if err != nil {
		return search.Failed(ProviderName, Layout, search.Wrap(ProviderName, fmt.Errorf("%w: %v", search.ErrSearchFailed, err)))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return search.Failed(ProviderName, Layout, search.Wrap(ProviderName, fmt.Errorf("%w: %v", search.ErrSearchFailed, err)))
	}
	req.Header.Set("X-API-Key", c.config.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return search.Failed(ProviderName, Layout, search.Wrap(ProviderName, search.ClassifyError(ctx, err)))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return search.Failed(ProviderName, Layout, search.Wrap(ProviderName,
			fmt.Errorf("%w: search API returned %d", search.ErrSearchFailed, resp.StatusCode)))
	}

	var apiResponse struct {
		Hits []struct {
			URL         string   `json:"url"`
			Title       string   `json:"title"`
			Description string   `json:"description"`
			Snippets    []string `json:"snippets"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return search.Failed(ProviderName, Layout, search.Wrap(ProviderName, search.ClassifyError(ctx, err)))
	}

	hits := apiResponse.Hits
	if len(hits) > count {
		hits = hits[:count]
	}

	results := make([]search.Result, 0, len(hits))
	for _, hit := range hits {
		results = append(results, search.Result{
			Title:       search.Placeholder(hit.Title, "No Title"),
			URL:         search.Placeholder(hit.URL, "No URL"),
			Description: search.Placeholder(hit.Description, "No Description"),
			Snippet:     strings.Join(hit.Snippets, " "),
		})
	}
	return search.Succeeded(ProviderName, Layout, results)
}

func (c *Client) buildSearchURL(query string, count int) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Add("query", query)
	params.Add("num_web_results", strconv.Itoa(min(count, maxWebResults)))
	params.Add("safesearch", "moderate")
	params.Add("country", "US")
	baseURL.RawQuery = params.Encode()
	return baseURL.String(), nil
}
