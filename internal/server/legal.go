// internal/server/legal.go
package server

import (
	"fmt"

	"github.com/spf13/afero"
)

// LegalDocument names one of the static policy pages.
type LegalDocument struct {
	Path       string
	Title      string
	ErrorText  string
	LogSubject string
}

// LegalPages reads policy text through an afero filesystem so tests can
// swap in an in-memory tree.
type LegalPages struct {
	fs      afero.Fs
	Terms   LegalDocument
	Privacy LegalDocument
}

func NewLegalPages(fs afero.Fs, cfg *Config) *LegalPages {
	name := cfg.AssistantName
	if name == "" {
		name = "Market Mentor"
	}
	return &LegalPages{
		fs: fs,
		Terms: LegalDocument{
			Path:       cfg.TermsPath,
			Title:      name + " - Terms of Service",
			ErrorText:  "Error loading Terms of Service",
			LogSubject: "terms",
		},
		Privacy: LegalDocument{
			Path:       cfg.PrivacyPath,
			Title:      name + " - Privacy Policy",
			ErrorText:  "Error loading Privacy Policy",
			LogSubject: "privacy policy",
		},
	}
}

// Read returns the document body.
func (l *LegalPages) Read(doc LegalDocument) (string, error) {
	data, err := afero.ReadFile(l.fs, doc.Path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", doc.Path, err)
	}
	return string(data), nil
}
