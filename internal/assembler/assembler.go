// Package assembler gathers search context for the answer prompt.
package assembler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"market-mentor/internal/common/config"
	"market-mentor/internal/common/logger"
	"market-mentor/internal/search"

	"golang.org/x/sync/errgroup"
)

const (
	SpecializedLabel = "YOU.COM SEARCH RESULTS"
	GeneralLabel     = "GOOGLE SEARCH RESULTS (STANDARD)"
)

var banner = strings.Repeat("=", 80)

type Config struct {
	AnchorPhrase    string
	Parallel        bool
	SpecializedHits int
	GeneralHits     int
}

func NewConfig(cfg config.AssistantConfig) *Config {
	return &Config{
		AnchorPhrase:    cfg.AnchorPhrase,
		Parallel:        cfg.ParallelSearches,
		SpecializedHits: cfg.ContextHits,
		GeneralHits:     cfg.GeneralHits,
	}
}

// Block is one labeled provider result.
type Block struct {
	Label string
	Set   search.ResultSet
}

// Context is the ordered set of blocks placed in the system prompt.
type Context struct {
	Blocks []Block
}

// String renders every block under its banner, separated by blank lines.
func (c Context) String() string {
	parts := make([]string, 0, len(c.Blocks))
	for _, b := range c.Blocks {
		parts = append(parts, fmt.Sprintf("%s\n%s\n%s\n%s", banner, b.Label, banner, b.Set.Render()))
	}
	return strings.Join(parts, "\n\n")
}

// Failed counts blocks whose provider call failed.
func (c Context) Failed() int {
	n := 0
	for _, b := range c.Blocks {
		if b.Set.Status == search.StatusFailed {
			n++
		}
	}
	return n
}

type source struct {
	label    string
	provider search.Provider
	opts     search.Options
}

// Assembler runs the specialized then general provider against the
// anchored question.
type Assembler struct {
	config  *Config
	sources []source
	logger  logger.Logger
}

func New(config *Config, specialized, general search.Provider, log logger.Logger) *Assembler {
	return &Assembler{
		config: config,
		sources: []source{
			{label: SpecializedLabel, provider: specialized, opts: search.Options{Count: config.SpecializedHits}},
			{label: GeneralLabel, provider: general, opts: search.Options{Count: config.GeneralHits, TimeRestricted: false}},
		},
		logger: log.With(map[string]interface{}{"component": "context-assembler"}),
	}
}

// Query prefixes the question with the anchoring phrase.
func (a *Assembler) Query(question string) string {
	return a.config.AnchorPhrase + question
}

// Gather queries every provider. Block order is fixed regardless of which
// call finishes first. The only error is cancellation of ctx.
func (a *Assembler) Gather(ctx context.Context, question string) (Context, error) {
	query := a.Query(question)
	blocks := make([]Block, len(a.sources))
	start := time.Now()

	a.logger.Info("gathering information from sources", map[string]interface{}{
		"query":    query,
		"parallel": a.config.Parallel,
	})

	if a.config.Parallel {
		var g errgroup.Group
		for i, src := range a.sources {
			g.Go(func() error {
				blocks[i] = Block{Label: src.label, Set: src.provider.Search(ctx, query, src.opts)}
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, src := range a.sources {
			if err := ctx.Err(); err != nil {
				return Context{}, err
			}
			blocks[i] = Block{Label: src.label, Set: src.provider.Search(ctx, query, src.opts)}
		}
	}

	if err := ctx.Err(); err != nil {
		return Context{}, fmt.Errorf("gather context: %w", err)
	}

	combined := Context{Blocks: blocks}
	a.logger.Info("searches completed", map[string]interface{}{
		"durationMs":   time.Since(start).Milliseconds(),
		"failedBlocks": combined.Failed(),
	})
	return combined, nil
}
