package generation

import (
	"context"
	"fmt"
	"strings"

	"market-mentor/internal/common/logger"
	"market-mentor/internal/llm"
	"market-mentor/internal/prompt"
)

type RejectionPrompts interface {
	RejectionSystem() string
	RejectionUser(question string) string
	Persona() prompt.Persona
}

type RejectionGenerator struct {
	completer llm.Completer
	prompts   RejectionPrompts
	logger    logger.Logger
}

func NewRejectionGenerator(completer llm.Completer, prompts RejectionPrompts, log logger.Logger) *RejectionGenerator {
	return &RejectionGenerator{
		completer: completer,
		prompts:   prompts,
		logger:    log.With(map[string]interface{}{"component": "rejection-generator"}),
	}
}

// CannedRejection is used when the rejection call fails.
func CannedRejection(p prompt.Persona) string {
	return fmt.Sprintf("I'm %s, your friendly %s supplier guru. "+
		"I only handle %s-related inquiries. Perhaps you'd like to talk about "+
		"product setup, shipping, or compliance? I'm here whenever you're ready!",
		p.Name, p.Retailer, p.Retailer)
}

func (g *RejectionGenerator) Generate(ctx context.Context, question string) Reply {
	completion, err := g.completer.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: g.prompts.RejectionSystem()},
		{Role: llm.RoleUser, Content: g.prompts.RejectionUser(question)},
	})
	if err != nil {
		g.logger.Error("error generating rejection", map[string]interface{}{"error": err.Error()})
		return Reply{Text: CannedRejection(g.prompts.Persona()), Fallback: true, Err: err}
	}

	text := strings.TrimSpace(completion.Content)
	if text == "" {
		g.logger.Warn("empty rejection from model, using canned text", nil)
		return Reply{Text: CannedRejection(g.prompts.Persona()), Fallback: true}
	}

	g.logger.Info("rejection generated successfully", nil)
	return Reply{Text: text}
}
