package ui

import (
	"bytes"
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrompter_ConfirmLine(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"yes", "y\n", true},
		{"yes word", "YES\n", true},
		{"no", "n\n", false},
		{"empty defaults to no", "\n", false},
		{"garbage is no", "maybe\n", false},
		{"no trailing newline", "y", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: a non-interactive prompter
			out := &bytes.Buffer{}
			p := NewPrompter(strings.NewReader(tt.input), out, WithInteractive(false))

			// When: asking a question
			got, err := p.Confirm(context.Background(), "Update directory?")

			// Then: the answer is parsed and the question shown
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "Update directory? [y/N]")
		})
	}
}

func TestPrompter_ConfirmLine_EOF(t *testing.T) {
	p := NewPrompter(strings.NewReader(""), &bytes.Buffer{}, WithInteractive(false))

	_, err := p.Confirm(context.Background(), "Update?")

	assert.Error(t, err)
}

func TestPrompter_Confirm_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPrompter(strings.NewReader("y\n"), &bytes.Buffer{}, WithInteractive(false))
	_, err := p.Confirm(ctx, "Update?")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewPrompter_NonTTYIsNotInteractive(t *testing.T) {
	p := NewPrompter(strings.NewReader(""), &bytes.Buffer{})

	assert.False(t, p.interactive)
}

func TestConfirmModel_Update(t *testing.T) {
	tests := []struct {
		name          string
		key           tea.KeyMsg
		wantAnswer    bool
		wantCancelled bool
	}{
		{"y answers yes", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")}, true, false},
		{"n answers no", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")}, false, false},
		{"enter takes default", tea.KeyMsg{Type: tea.KeyEnter}, false, false},
		{"ctrl+c cancels", tea.KeyMsg{Type: tea.KeyCtrlC}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newConfirmModel("Update?", NoColorStyles())

			next, cmd := m.Update(tt.key)

			result := next.(confirmModel)
			assert.True(t, result.done)
			assert.Equal(t, tt.wantAnswer, result.answer)
			assert.Equal(t, tt.wantCancelled, result.cancelled)
			assert.NotNil(t, cmd)
		})
	}
}

func TestConfirmModel_IgnoresOtherKeys(t *testing.T) {
	m := newConfirmModel("Update?", NoColorStyles())

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})

	assert.False(t, next.(confirmModel).done)
	assert.Nil(t, cmd)
	assert.Contains(t, next.View(), "(y/N)")
}

func TestGetStyles(t *testing.T) {
	// no-color styles render text verbatim
	assert.Equal(t, "test", GetStyles(true).Success.Render("test"))
	assert.Contains(t, GetStyles(false).Success.Render("test"), "test")
}

func TestColorEnabled_NonTTY(t *testing.T) {
	assert.False(t, ColorEnabled(&bytes.Buffer{}, false))
	assert.False(t, IsTTY(nil))
}

func TestDetectNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.True(t, DetectNoColor())
}
