package generation

import (
	"context"

	"market-mentor/internal/common/logger"
	"market-mentor/internal/llm"
)

// AnswerFallback is returned whenever the generation call fails.
const AnswerFallback = "An error occurred while generating the response. Please try again."

type AnswerPrompts interface {
	SystemPrompt(combined string) (string, error)
}

type AnswerGenerator struct {
	completer llm.Completer
	prompts   AnswerPrompts
	logger    logger.Logger
}

func NewAnswerGenerator(completer llm.Completer, prompts AnswerPrompts, log logger.Logger) *AnswerGenerator {
	return &AnswerGenerator{
		completer: completer,
		prompts:   prompts,
		logger:    log.With(map[string]interface{}{"component": "answer-generator"}),
	}
}

// Generate sends the persona prompt, with the context embedded, and the
// question verbatim. The model text is returned unmodified.
func (g *AnswerGenerator) Generate(ctx context.Context, question, combined string) Reply {
	system, err := g.prompts.SystemPrompt(combined)
	if err != nil {
		g.logger.Error("error building system prompt", map[string]interface{}{"error": err.Error()})
		return Reply{Text: AnswerFallback, Fallback: true, Err: err}
	}

	completion, err := g.completer.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: question},
	})
	if err != nil {
		g.logger.Error("error in AI response generation", map[string]interface{}{"error": err.Error()})
		return Reply{Text: AnswerFallback, Fallback: true, Err: err}
	}

	g.logger.Info("AI response generated", map[string]interface{}{
		"systemPromptLength": len(system),
		"contextLength":      len(combined),
		"questionLength":     len(question),
		"responseLength":     len(completion.Content),
	})
	g.logger.Debug("AI response content", map[string]interface{}{"content": completion.Content})

	return Reply{Text: completion.Content}
}
