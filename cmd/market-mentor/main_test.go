package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

func TestCheckCommand(t *testing.T) {
	tests := []struct {
		name     string
		question []string
		want     string
	}{
		{"keyword match", []string{"What is OTIF?"}, "in domain (matched \\botif\\b)\n"},
		{"multi-word args are joined", []string{"how", "does", "retail", "link", "work"}, "in domain (matched \\bretail link\\b)\n"},
		{"no match", []string{"What is the best movie of 2023?"}, "no keyword match; an LLM verdict would be required\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCommand(t, append([]string{"check"}, tt.question...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestCheckCommand_RequiresQuestion(t *testing.T) {
	_, err := runCommand(t, "check")
	assert.Error(t, err)
}

func TestAskCommand_RejectsBlankQuestion(t *testing.T) {
	_, err := runCommand(t, "ask", "   ")
	assert.EqualError(t, err, "please provide a valid question")
}
