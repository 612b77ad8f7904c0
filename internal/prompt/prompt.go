// Package prompt renders the persona prompts sent to the chat models.
package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"market-mentor/internal/common/config"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Persona names the assistant and the retailer it is scoped to.
type Persona struct {
	Name     string
	Retailer string
}

// DefaultPersona is the production persona.
var DefaultPersona = Persona{Name: "Market Mentor", Retailer: "Walmart"}

func PersonaFromConfig(cfg config.AssistantConfig) Persona {
	p := DefaultPersona
	if cfg.Name != "" {
		p.Name = cfg.Name
	}
	if cfg.Retailer != "" {
		p.Retailer = cfg.Retailer
	}
	return p
}

// Builder holds the parsed templates. The persona-only prompts are
// rendered once at construction.
type Builder struct {
	persona        Persona
	answer         *template.Template
	classifierText string
	rejectionText  string
}

func NewBuilder(persona Persona) (*Builder, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse prompt templates: %w", err)
	}

	b := &Builder{persona: persona, answer: tmpl.Lookup("answer.tmpl")}
	if b.classifierText, err = render(tmpl.Lookup("classifier.tmpl"), persona); err != nil {
		return nil, err
	}
	if b.rejectionText, err = render(tmpl.Lookup("rejection.tmpl"), persona); err != nil {
		return nil, err
	}
	return b, nil
}

// SystemPrompt embeds the combined search context into the answer persona.
func (b *Builder) SystemPrompt(combined string) (string, error) {
	return render(b.answer, struct {
		Persona
		Context string
	}{Persona: b.persona, Context: combined})
}

// ClassifierSystem is the instruction for the strict true/false verdict.
func (b *Builder) ClassifierSystem() string {
	return b.classifierText
}

func (b *Builder) ClassifierUser(question, snippets string) string {
	return fmt.Sprintf("Is this question related to %s suppliers or retail processes considering these snippets? Question: %s Snippets: %s",
		b.persona.Retailer, question, snippets)
}

func (b *Builder) RejectionSystem() string {
	return b.rejectionText
}

func (b *Builder) RejectionUser(question string) string {
	return fmt.Sprintf("Create a brief, witty rejection for this unrelated question: %s", question)
}

func (b *Builder) Persona() Persona {
	return b.persona
}

func render(tmpl *template.Template, data interface{}) (string, error) {
	if tmpl == nil {
		return "", fmt.Errorf("prompt template not found")
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
