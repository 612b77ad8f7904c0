// Package search defines the provider-neutral result types shared by the
// web search adapters.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "market-mentor/internal/common/errors"
)

var (
	ErrSearchTimeout = errors.New("SEARCH_TIMEOUT")
	ErrSearchFailed  = errors.New("SEARCH_FAILED")
)

// Status tags a ResultSet so callers can tell an empty answer from a
// provider outage without parsing text.
type Status int

const (
	StatusOK Status = iota
	StatusEmpty
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmpty:
		return "empty"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is one normalized hit. Missing upstream fields are already
// replaced with placeholders by the adapter.
type Result struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Snippet     string `json:"snippet"`
	Description string `json:"description,omitempty"`
}

type Options struct {
	Count          int
	TimeRestricted bool
}

// Layout controls how a provider's results are rendered into prompt text.
type Layout struct {
	EmptyText       string
	WithDescription bool
}

// ResultSet is the outcome of one provider call.
type ResultSet struct {
	Provider string
	Status   Status
	Results  []Result
	Err      error
	Layout   Layout
}

// Provider is implemented by every web search backend.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, opts Options) ResultSet
}

// Succeeded builds an OK or Empty set depending on len(results).
func Succeeded(provider string, layout Layout, results []Result) ResultSet {
	status := StatusOK
	if len(results) == 0 {
		status = StatusEmpty
	}
	return ResultSet{Provider: provider, Status: status, Results: results, Layout: layout}
}

func Failed(provider string, layout Layout, err error) ResultSet {
	return ResultSet{Provider: provider, Status: StatusFailed, Err: err, Layout: layout}
}

// Render turns the set into the text block placed in prompts. Empty and
// failed sets render to their fixed sentinel text, never to "".
func (rs ResultSet) Render() string {
	switch rs.Status {
	case StatusFailed:
		return fmt.Sprintf("(Error: %s)", errorMessage(rs.Err))
	case StatusEmpty:
		return rs.Layout.EmptyText
	}

	blocks := make([]string, 0, len(rs.Results))
	for _, r := range rs.Results {
		if rs.Layout.WithDescription {
			blocks = append(blocks, fmt.Sprintf("Title: %s\nURL: %s\nDescription: %s\nSnippet: %s",
				r.Title, r.URL, r.Description, r.Snippet))
			continue
		}
		blocks = append(blocks, fmt.Sprintf("Title: %s\nURL: %s\nSnippet: %s", r.Title, r.URL, r.Snippet))
	}
	return strings.Join(blocks, "\n\n")
}

func errorMessage(err error) string {
	if err == nil {
		return "unknown error"
	}
	var stdErr *apperrors.StandardError
	if errors.As(err, &stdErr) && stdErr.Details != "" {
		return stdErr.Details
	}
	return err.Error()
}

// ClassifyError maps a transport failure onto the provider sentinels. The
// string checks cover net/http client timeouts that do not wrap
// context.DeadlineExceeded.
func ClassifyError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) ||
		ctx.Err() == context.DeadlineExceeded ||
		strings.Contains(err.Error(), "timeout") ||
		strings.Contains(err.Error(), "deadline") ||
		strings.Contains(err.Error(), "Client.Timeout") {
		return fmt.Errorf("%w: %v", ErrSearchTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrSearchFailed, err)
}

// Wrap converts a classified error into the StandardError carried by a
// failed ResultSet.
func Wrap(provider string, err error) error {
	if errors.Is(err, ErrSearchTimeout) {
		return apperrors.NewSearchTimeoutError(provider, err)
	}
	return apperrors.NewSearchFailedError(provider, err)
}

// Placeholder returns fallback when value is blank.
func Placeholder(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
