package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrPromptCancelled is returned when the user aborts a prompt with ctrl+c or esc.
var ErrPromptCancelled = errors.New("prompt cancelled")

// Prompter asks yes/no questions on a terminal.
// On a TTY it runs a small bubbletea program; otherwise it reads a line.
type Prompter struct {
	in          io.Reader
	out         io.Writer
	interactive bool
	styles      Styles
}

// PrompterOption configures a Prompter.
type PrompterOption func(*Prompter)

// WithInteractive overrides TTY detection.
func WithInteractive(interactive bool) PrompterOption {
	return func(p *Prompter) {
		p.interactive = interactive
	}
}

// WithStyles sets the styles used to render the question.
func WithStyles(s Styles) PrompterOption {
	return func(p *Prompter) {
		p.styles = s
	}
}

// NewPrompter creates a Prompter reading from in and writing to out.
func NewPrompter(in io.Reader, out io.Writer, opts ...PrompterOption) *Prompter {
	p := &Prompter{
		in:          in,
		out:         out,
		interactive: IsTTY(in) && IsTTY(out),
		styles:      NoColorStyles(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Confirm asks question and returns the answer. The default answer is no.
func (p *Prompter) Confirm(ctx context.Context, question string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if p.interactive {
		return p.confirmTUI(ctx, question)
	}
	return p.confirmLine(question)
}

func (p *Prompter) confirmLine(question string) (bool, error) {
	_, _ = fmt.Fprintf(p.out, "%s [y/N]: ", p.styles.Bold.Render(question))

	reader := bufio.NewReader(p.in)
	input, err := reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && input != "") {
		return false, fmt.Errorf("failed to read input: %w", err)
	}

	return parseAnswer(input), nil
}

func (p *Prompter) confirmTUI(ctx context.Context, question string) (bool, error) {
	m := newConfirmModel(question, p.styles)
	prog := tea.NewProgram(m,
		tea.WithInput(p.in),
		tea.WithOutput(p.out),
		tea.WithContext(ctx),
	)

	final, err := prog.Run()
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return false, fmt.Errorf("prompt failed: %w", err)
	}

	result, ok := final.(confirmModel)
	if !ok {
		return false, fmt.Errorf("prompt returned unexpected model %T", final)
	}
	if result.cancelled {
		return false, ErrPromptCancelled
	}
	return result.answer, nil
}

// parseAnswer maps free-form input to yes/no. Anything but y/yes is no.
func parseAnswer(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// confirmModel is the bubbletea model behind Prompter on a TTY.
type confirmModel struct {
	question  string
	styles    Styles
	answer    bool
	done      bool
	cancelled bool
}

func newConfirmModel(question string, styles Styles) confirmModel {
	return confirmModel{question: question, styles: styles}
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch strings.ToLower(key.String()) {
	case "y":
		m.answer = true
		m.done = true
		return m, tea.Quit
	case "n", "enter":
		m.answer = false
		m.done = true
		return m, tea.Quit
	case "ctrl+c", "esc":
		m.cancelled = true
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.done {
		answer := "no"
		if m.answer {
			answer = "yes"
		}
		if m.cancelled {
			answer = "cancelled"
		}
		return fmt.Sprintf("%s %s\n", m.styles.Bold.Render(m.question), m.styles.Dim.Render(answer))
	}
	return fmt.Sprintf("%s %s ", m.styles.Bold.Render(m.question), m.styles.Label.Render("(y/N)"))
}
