// internal/relevance/gate/gate.go
package gate

import (
	"fmt"
	"regexp"
	"strings"

	"market-mentor/internal/common/logger"
)

// asciiPunctuation is the set removed during normalization.
const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Gate is the offline first-pass relevance filter. It is safe for
// concurrent use.
type Gate struct {
	patterns []*regexp.Regexp
	logger   logger.Logger
}

// New compiles patterns in order. An invalid pattern fails construction.
func New(patterns []string, log logger.Logger) (*Gate, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return &Gate{
		patterns: compiled,
		logger:   log.With(map[string]interface{}{"component": "lexical-gate"}),
	}, nil
}

// NewDefault builds a Gate over DefaultPatterns.
func NewDefault(log logger.Logger) *Gate {
	g, err := New(DefaultPatterns, log)
	if err != nil {
		panic(err)
	}
	return g
}

// Normalize lowercases the question and strips ASCII punctuation.
func Normalize(question string) string {
	return strings.Map(func(r rune) rune {
		if r < 128 && strings.ContainsRune(asciiPunctuation, r) {
			return -1
		}
		return r
	}, strings.ToLower(question))
}

// Match returns the first pattern that matches the normalized question.
func (g *Gate) Match(question string) (string, bool) {
	normalized := Normalize(question)
	for _, re := range g.patterns {
		if re.MatchString(normalized) {
			return re.String(), true
		}
	}
	return "", false
}

// IsLikelyInDomain reports whether any domain pattern matches.
func (g *Gate) IsLikelyInDomain(question string) bool {
	pattern, ok := g.Match(question)
	if ok {
		g.logger.Info("lexical relevance check passed", map[string]interface{}{
			"keyword": pattern,
		})
		return true
	}
	g.logger.Info("lexical relevance check failed", nil)
	return false
}

// Len is the number of compiled patterns.
func (g *Gate) Len() int {
	return len(g.patterns)
}
