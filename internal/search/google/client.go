// internal/search/google/client.go
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	commonhttp "market-mentor/internal/common/http"
	"market-mentor/internal/common/logger"
	"market-mentor/internal/common/metrics"
	"market-mentor/internal/search"
)

const (
	ProviderName      = "google"
	DefaultMaxResults = 10
)

// Layout is the general web search rendering.
var Layout = search.Layout{EmptyText: "No relevant search results found."}

// Client queries the Google Custom Search JSON API.
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

// Search never returns a Go error; failures are carried in the set.
func (c *Client) Search(ctx context.Context, query string, opts search.Options) search.ResultSet {
	set := c.search(ctx, query, opts)
	metrics.SearchRequests.WithLabelValues(ProviderName, set.Status.String()).Inc()

	switch set.Status {
	case search.StatusFailed:
		c.logger.Error("google search failed", map[string]interface{}{
			"query": query,
			"error": set.Err.Error(),
		})
	case search.StatusEmpty:
		c.logger.Info("no relevant search results found from google search", map[string]interface{}{
			"query": query,
		})
	default:
		c.logger.Info("google search completed", map[string]interface{}{
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

	searchURL, err := c.buildSearchURL(query, opts)
	if err != nil {
		return search.Failed(ProviderName, Layout, search.Wrap(ProviderName, fmt.Errorf("%w: %v", search.ErrSearchFailed, err)))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return search.Failed(ProviderName, Layout, search.Wrap(ProviderName, fmt.Errorf("%w: %v", search.ErrSearchFailed, err)))
	}

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
		Items []struct {
			Link    string `json:"link"`
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return search.Failed(ProviderName, Layout, search.Wrap(ProviderName, search.ClassifyError(ctx, err)))
	}

	results := make([]search.Result, 0, len(apiResponse.Items))
	for _, item := range apiResponse.Items {
		results = append(results, search.Result{
			Title:   search.Placeholder(item.Title, "No Title"),
			URL:     search.Placeholder(item.Link, "No Link"),
			Snippet: search.Placeholder(item.Snippet, "No Snippet"),
		})
	}
	return search.Succeeded(ProviderName, Layout, results)
}

func (c *Client) buildSearchURL(query string, opts search.Options) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", err
	}

	count := opts.Count
	if count <= 0 {
		count = c.config.MaxResults
	}

	params := url.Values{}
	params.Add("key", c.config.APIKey)
	params.Add("cx", c.config.EngineID)
	params.Add("q", query)
	params.Add("num", strconv.Itoa(count))
	params.Add("gl", "us")
	params.Add("lr", "lang_en")
	if opts.TimeRestricted {
		params.Add("dateRestrict", "d365")
		params.Add("sort", "date")
	}
	baseURL.RawQuery = params.Encode()
	return baseURL.String(), nil
}
