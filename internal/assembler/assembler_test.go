package assembler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"market-mentor/internal/common/logger"
	"market-mentor/internal/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name  string
	delay time.Duration
	set   search.ResultSet

	mu    sync.Mutex
	query string
	opts  search.Options
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Search(ctx context.Context, query string, opts search.Options) search.ResultSet {
	s.mu.Lock()
	s.query = query
	s.opts = opts
	s.mu.Unlock()
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return search.Failed(s.name, s.set.Layout, ctx.Err())
		}
	}
	return s.set
}

var (
	youLayout    = search.Layout{EmptyText: "No relevant You.com search results found.", WithDescription: true}
	googleLayout = search.Layout{EmptyText: "No relevant search results found."}
)

func testConfig(parallel bool) *Config {
	return &Config{
		AnchorPhrase:    "In the context of Walmart suppliers: ",
		Parallel:        parallel,
		SpecializedHits: 15,
		GeneralHits:     10,
	}
}

func TestAssembler_Gather_OrderAndFormat(t *testing.T) {
	for _, parallel := range []bool{true, false} {
		t.Run(map[bool]string{true: "parallel", false: "sequential"}[parallel], func(t *testing.T) {
			// The specialized provider finishes last but must render first.
			you := &stubProvider{name: "you", delay: 30 * time.Millisecond, set: search.Succeeded("you", youLayout, []search.Result{
				{Title: "OTIF", URL: "https://supplier.walmart.com/otif", Description: "Policy", Snippet: "on time in full"},
			})}
			google := &stubProvider{name: "google", set: search.Succeeded("google", googleLayout, nil)}

			a := New(testConfig(parallel), you, google, logger.NewTestLogger(t))
			combined, err := a.Gather(context.Background(), "What does OTIF mean for suppliers?")
			require.NoError(t, err)

			banner := strings.Repeat("=", 80)
			want := banner + "\nYOU.COM SEARCH RESULTS\n" + banner + "\n" +
				"Title: OTIF\nURL: https://supplier.walmart.com/otif\nDescription: Policy\nSnippet: on time in full" +
				"\n\n" +
				banner + "\nGOOGLE SEARCH RESULTS (STANDARD)\n" + banner + "\n" +
				"No relevant search results found."
			assert.Equal(t, want, combined.String())

			assert.Equal(t, "In the context of Walmart suppliers: What does OTIF mean for suppliers?", you.query)
			assert.Equal(t, you.query, google.query)
			assert.Equal(t, search.Options{Count: 15}, you.opts)
			assert.Equal(t, search.Options{Count: 10, TimeRestricted: false}, google.opts)
		})
	}
}

func TestAssembler_Gather_ProviderFailureIsContext(t *testing.T) {
	you := &stubProvider{name: "you", set: search.Failed("you", youLayout, errors.New("status 500"))}
	google := &stubProvider{name: "google", set: search.Succeeded("google", googleLayout, []search.Result{
		{Title: "T", URL: "U", Snippet: "S"},
	})}

	a := New(testConfig(true), you, google, logger.NewTestLogger(t))
	combined, err := a.Gather(context.Background(), "q")

	require.NoError(t, err)
	assert.Equal(t, 1, combined.Failed())
	assert.Contains(t, combined.String(), "YOU.COM SEARCH RESULTS\n"+strings.Repeat("=", 80)+"\n(Error: status 500)")
	assert.Contains(t, combined.String(), "Title: T\nURL: U\nSnippet: S")
}

func TestAssembler_Gather_Cancelled(t *testing.T) {
	you := &stubProvider{name: "you", delay: time.Second, set: search.Succeeded("you", youLayout, nil)}
	google := &stubProvider{name: "google", delay: time.Second, set: search.Succeeded("google", googleLayout, nil)}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	a := New(testConfig(true), you, google, logger.NewTestLogger(t))
	_, err := a.Gather(ctx, "q")

	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestAssembler_Gather_ParallelIsConcurrent(t *testing.T) {
	you := &stubProvider{name: "you", delay: 100 * time.Millisecond, set: search.Succeeded("you", youLayout, nil)}
	google := &stubProvider{name: "google", delay: 100 * time.Millisecond, set: search.Succeeded("google", googleLayout, nil)}

	a := New(testConfig(true), you, google, logger.NewNoOpLogger())
	start := time.Now()
	_, err := a.Gather(context.Background(), "q")

	require.NoError(t, err)
	assert.Less(t, time.Since(start), 190*time.Millisecond)
}
