// internal/relevance/classifier/classifier.go
package classifier

import (
	"context"
	"strconv"
	"strings"

	apperrors "market-mentor/internal/common/errors"
	"market-mentor/internal/common/logger"
	"market-mentor/internal/common/metrics"
	"market-mentor/internal/llm"
	"market-mentor/internal/search"
)

const unexpectedFormat = "Unexpected response format from API."

// LexicalGate is the offline first stage.
type LexicalGate interface {
	Match(question string) (string, bool)
}

// Prompts supplies the verdict instructions.
type Prompts interface {
	ClassifierSystem() string
	ClassifierUser(question, snippets string) string
}

// Classifier decides whether a question is in domain: keyword gate first,
// then an LLM verdict over a small search sample. Any failure in the second
// stage answers "not in domain".
type Classifier struct {
	config    *Config
	gate      LexicalGate
	searcher  search.Provider
	completer llm.Completer
	prompts   Prompts
	store     VerdictStore
	logger    logger.Logger
}

func New(
	config *Config,
	gate LexicalGate,
	searcher search.Provider,
	completer llm.Completer,
	prompts Prompts,
	store VerdictStore,
	log logger.Logger,
) *Classifier {
	return &Classifier{
		config:    config,
		gate:      gate,
		searcher:  searcher,
		completer: completer,
		prompts:   prompts,
		store:     store,
		logger:    log.With(map[string]interface{}{"component": "relevance-classifier"}),
	}
}

// IsInDomain is Classify reduced to its boolean.
func (c *Classifier) IsInDomain(ctx context.Context, question string) bool {
	return c.Classify(ctx, question).Relevant
}

func (c *Classifier) Classify(ctx context.Context, question string) Verdict {
	if pattern, ok := c.gate.Match(question); ok {
		c.logger.Info("lexical relevance check passed", map[string]interface{}{
			"keyword": pattern,
		})
		metrics.RelevanceChecks.WithLabelValues(StageLexical, "true").Inc()
		return Verdict{
			Relevant:    true,
			Explanation: "matched keyword " + pattern,
			Stage:       StageLexical,
			Definitive:  true,
		}
	}

	c.logger.Info("lexical relevance check failed, performing AI-based check", nil)

	sample := c.searcher.Search(ctx, question, search.Options{Count: c.config.SampleHits})
	snippets := sample.Render()
	key := CacheKey(question, snippets)

	cached, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("verdict cache lookup failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if ok {
		metrics.VerdictCacheLookups.WithLabelValues("hit").Inc()
		metrics.RelevanceChecks.WithLabelValues(StageLLM, strconv.FormatBool(cached.Relevant)).Inc()
		cached.Cached = true
		cached.Definitive = true
		c.logger.Info("AI-based relevance verdict served from cache", map[string]interface{}{
			"decision": cached.Relevant,
		})
		return cached
	}
	metrics.VerdictCacheLookups.WithLabelValues("miss").Inc()

	verdict := c.judge(ctx, question, snippets)
	if verdict.Definitive {
		if err := c.store.Add(ctx, key, verdict); err != nil {
			c.logger.Warn("verdict cache store failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	metrics.RelevanceChecks.WithLabelValues(StageLLM, strconv.FormatBool(verdict.Relevant)).Inc()
	c.logger.Info("AI-based relevance check decision", map[string]interface{}{
		"decision":     verdict.Relevant,
		"explanation":  verdict.Explanation,
		"sampleStatus": sample.Status.String(),
	})
	return verdict
}

func (c *Classifier) judge(ctx context.Context, question, snippets string) Verdict {
	completion, err := c.completer.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: c.prompts.ClassifierSystem()},
		{Role: llm.RoleUser, Content: c.prompts.ClassifierUser(question, snippets)},
	})
	if err != nil {
		stdErr := apperrors.NewClassificationFailedError(err.Error())
		c.logger.Error("error in relevance check", stdErr.ToLogFields())
		return Verdict{
			Relevant:    false,
			Explanation: err.Error(),
			Stage:       StageLLM,
			Definitive:  false,
		}
	}

	relevant, explanation := ParseVerdict(completion.Content)
	return Verdict{
		Relevant:    relevant,
		Explanation: explanation,
		Stage:       StageLLM,
		Definitive:  true,
	}
}

// ParseVerdict reads a leading true/false token, case-insensitively, from
// the trimmed model output. The remainder is the explanation. Anything
// else is a "false" verdict.
func ParseVerdict(content string) (bool, string) {
	content = strings.TrimSpace(content)
	switch {
	case hasFoldPrefix(content, "true"):
		return true, strings.TrimSpace(content[len("true"):])
	case hasFoldPrefix(content, "false"):
		return false, strings.TrimSpace(content[len("false"):])
	default:
		return false, unexpectedFormat
	}
}

func hasFoldPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
