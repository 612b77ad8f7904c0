package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"market-mentor/internal/app"
	"market-mentor/internal/common/config"
	"market-mentor/internal/common/logger"
	"market-mentor/internal/generation"
	"market-mentor/internal/llm"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	classifierModel = "test/classifier"
	generatorModel  = "test/generator"
	rejectionModel  = "test/rejection"
)

// upstreams fakes every external API the pipeline calls.
type upstreams struct {
	mu sync.Mutex

	classifierReply string
	generatorReply  string
	generatorStatus int
	rejectionReply  string
	calls           map[string]int
	generatorSystem string
	youQueries      []string
	googleQueries   []string

	you    *httptest.Server
	google *httptest.Server
	llm    *httptest.Server
}

func newUpstreams(t *testing.T) *upstreams {
	u := &upstreams{calls: map[string]int{}}

	u.you = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		u.youQueries = append(u.youQueries, r.URL.Query().Get("query"))
		u.mu.Unlock()
		w.Write([]byte(`{"hits": [{"title": "Supplier Center", "url": "https://supplier.walmart.com",
			"description": "Supplier portal", "snippets": ["OTIF", "scorecard"]}]}`))
	}))
	u.google = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		u.googleQueries = append(u.googleQueries, r.URL.Query().Get("q"))
		u.mu.Unlock()
		w.Write([]byte(`{"items": [{"title": "OTIF Policy", "link": "https://corporate.walmart.com/otif",
			"snippet": "On-time in-full"}]}`))
	}))
	u.llm = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req llm.ChatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		u.mu.Lock()
		u.calls[req.Model]++
		var reply string
		status := http.StatusOK
		switch req.Model {
		case classifierModel:
			reply = u.classifierReply
		case generatorModel:
			u.generatorSystem = req.Messages[0].Content
			reply = u.generatorReply
			if u.generatorStatus != 0 {
				status = u.generatorStatus
			}
		case rejectionModel:
			reply = u.rejectionReply
		}
		u.mu.Unlock()

		if status != http.StatusOK {
			w.WriteHeader(status)
			w.Write([]byte(`{"error": {"message": "bad request"}}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":    "cmpl-1",
			"model": req.Model,
			"choices": []map[string]interface{}{
				{"index": 0, "message": map[string]string{"role": "assistant", "content": reply}},
			},
		})
	}))

	t.Cleanup(func() {
		u.you.Close()
		u.google.Close()
		u.llm.Close()
	})
	return u
}

func (u *upstreams) callCount(model string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls[model]
}

func (u *upstreams) queries() (you, google []string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.youQueries...), append([]string(nil), u.googleQueries...)
}

func (u *upstreams) lastGeneratorSystem() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.generatorSystem
}

func (u *upstreams) appConfig() *config.Config {
	profile := func(model string) config.LLMConfig {
		return config.LLMConfig{
			BaseURL:     u.llm.URL,
			APIKey:      "test-key",
			Model:       model,
			Temperature: 0.7,
			TopP:        1,
			MaxTokens:   100,
			Timeout:     5000,
			Referer:     "https://marketmentor.com",
			Title:       "Market Mentor",
		}
	}

	cfg := &config.Config{}
	cfg.App.Environment = "test"
	cfg.Assistant = config.AssistantConfig{
		Name:             "Market Mentor",
		Retailer:         "Walmart",
		AnchorPhrase:     "In the context of Walmart suppliers: ",
		ClassifierHits:   5,
		ContextHits:      15,
		GeneralHits:      10,
		ParallelSearches: true,
	}
	cfg.APIs.Classification = profile(classifierModel)
	cfg.APIs.Generation = profile(generatorModel)
	cfg.APIs.Rejection = profile(rejectionModel)
	cfg.APIs.YouSearch = config.YouSearchConfig{BaseURL: u.you.URL, APIKey: "you-key", Timeout: 5000}
	cfg.APIs.GoogleSearch = config.GoogleConfig{BaseURL: u.google.URL, APIKey: "g-key", EngineID: "cx", Timeout: 5000}
	cfg.Cache.Capacity = 100
	cfg.Legal = config.LegalConfig{TermsPath: "mentor_tos.txt", PrivacyPath: "mentor_privacy.txt"}
	return cfg
}

func newPipelineServer(t *testing.T, u *upstreams) *Server {
	t.Helper()
	log := logger.NewTestLogger(t)

	a, err := app.Build(context.Background(), u.appConfig(), log)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	s, err := New(createTestConfig(), a.Pipeline, afero.NewMemMapFs(), a, log)
	require.NoError(t, err)
	return s
}

// ==========================
// End-to-End Scenarios
// ==========================

func TestEndToEnd_EmptyQuestionSkipsPipeline(t *testing.T) {
	u := newUpstreams(t)
	s := newPipelineServer(t, u)

	_, resp := postAsk(t, s, `{"question": ""}`, nil)

	assert.Equal(t, "Please provide a valid question.", resp.Response)
	youQueries, googleQueries := u.queries()
	assert.Empty(t, youQueries)
	assert.Empty(t, googleQueries)
	assert.Zero(t, u.callCount(classifierModel)+u.callCount(generatorModel)+u.callCount(rejectionModel))
}

func TestEndToEnd_OutOfDomainQuestionIsRejected(t *testing.T) {
	u := newUpstreams(t)
	u.classifierReply = "false This question is about movies."
	u.rejectionReply = "  Nice try, but I only review supply chains, not screenplays.  \n"
	s := newPipelineServer(t, u)

	_, resp := postAsk(t, s, `{"question": "What is the best movie of 2023?"}`, nil)

	assert.Equal(t, "Nice try, but I only review supply chains, not screenplays.", resp.Response)
	assert.Equal(t, 1, u.callCount(classifierModel))
	assert.Equal(t, 1, u.callCount(rejectionModel))
	assert.Zero(t, u.callCount(generatorModel))
	youQueries, googleQueries := u.queries()
	assert.Empty(t, googleQueries, "context is never gathered for rejected questions")
	assert.Equal(t, []string{"What is the best movie of 2023?"}, youQueries)
}

func TestEndToEnd_RepeatedQuestionUsesCachedVerdict(t *testing.T) {
	u := newUpstreams(t)
	u.classifierReply = "false Not supplier related."
	u.rejectionReply = "No."
	s := newPipelineServer(t, u)

	postAsk(t, s, `{"question": "What is the best movie of 2023?"}`, nil)
	postAsk(t, s, `{"question": "What is the best movie of 2023?"}`, nil)

	assert.Equal(t, 1, u.callCount(classifierModel))
	assert.Equal(t, 2, u.callCount(rejectionModel))
}

func TestEndToEnd_InDomainQuestionIsAnswered(t *testing.T) {
	u := newUpstreams(t)
	answer := "**OTIF** measures on-time in-full delivery.\n\n- Track it weekly\n"
	u.generatorReply = answer
	s := newPipelineServer(t, u)

	_, resp := postAsk(t, s, `{"question": "What is OTIF?"}`, nil)

	assert.Equal(t, answer, resp.Response, "answer text is returned unmodified")
	assert.Zero(t, u.callCount(classifierModel), "keyword gate short-circuits the LLM verdict")
	assert.Equal(t, 1, u.callCount(generatorModel))

	anchored := "In the context of Walmart suppliers: What is OTIF?"
	youQueries, googleQueries := u.queries()
	assert.Equal(t, []string{anchored}, youQueries)
	assert.Equal(t, []string{anchored}, googleQueries)

	system := u.lastGeneratorSystem()
	youAt := strings.Index(system, "YOU.COM SEARCH RESULTS")
	googleAt := strings.Index(system, "GOOGLE SEARCH RESULTS (STANDARD)")
	require.GreaterOrEqual(t, youAt, 0)
	require.Greater(t, googleAt, youAt)
	assert.Contains(t, system, "Title: Supplier Center\nURL: https://supplier.walmart.com\nDescription: Supplier portal\nSnippet: OTIF scorecard")
	assert.Contains(t, system, "Title: OTIF Policy\nURL: https://corporate.walmart.com/otif\nSnippet: On-time in-full")
}

func TestEndToEnd_LLMApprovedQuestionIsAnswered(t *testing.T) {
	u := newUpstreams(t)
	u.classifierReply = "TRUE bakery suppliers ship through the grocery network."
	u.generatorReply = "Start with a strong starter."
	s := newPipelineServer(t, u)

	_, resp := postAsk(t, s, `{"question": "How do I bake sourdough bread?"}`, nil)

	assert.Equal(t, "Start with a strong starter.", resp.Response)
	assert.Equal(t, 1, u.callCount(classifierModel))
	assert.Zero(t, u.callCount(rejectionModel))
}

func TestEndToEnd_GenerationFailureReturnsFallback(t *testing.T) {
	u := newUpstreams(t)
	u.generatorStatus = http.StatusBadRequest
	s := newPipelineServer(t, u)

	rec, resp := postAsk(t, s, `{"question": "What is OTIF?"}`, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, generation.AnswerFallback, resp.Response)
	assert.Equal(t, 1, u.callCount(generatorModel))
}

func TestEndToEnd_ReadyWithoutSharedCache(t *testing.T) {
	u := newUpstreams(t)
	s := newPipelineServer(t, u)

	rec := get(s, "/ready")
	assert.Equal(t, http.StatusOK, rec.Code)
}
