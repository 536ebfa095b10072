package disambig

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Chooser picks one of options. An empty choice with a nil error means the
// user declined.
type Chooser interface {
	Choose(ctx context.Context, options []string) (string, error)
}

// interactive is implemented by choosers that ask a person. Only those are
// asked again when a choice turns out to be ambiguous itself.
type interactive interface {
	Interactive() bool
}

func isInteractive(c Chooser) bool {
	i, ok := c.(interactive)
	return ok && i.Interactive()
}

// AutoChooser always takes the first option.
type AutoChooser struct{}

func (AutoChooser) Choose(_ context.Context, options []string) (string, error) {
	if len(options) == 0 {
		return "", nil
	}
	return options[0], nil
}

// ErrChoiceDeferred is returned by DeferredChooser. The options have to be
// offered to the user and the answer fed back in a later turn.
var ErrChoiceDeferred = errors.New("choice deferred to a later turn")

// DeferredChooser never decides on its own.
type DeferredChooser struct{}

func (DeferredChooser) Choose(context.Context, []string) (string, error) {
	return "", ErrChoiceDeferred
}

func (DeferredChooser) Interactive() bool { return true }

// PromptChooser prints a numbered list and reads the answer from a line of
// input.
type PromptChooser struct {
	in     *bufio.Reader
	out    io.Writer
	prompt string
}

func NewPromptChooser(in io.Reader, out io.Writer, prompt string) *PromptChooser {
	if prompt == "" {
		prompt = "Which one did you mean?"
	}
	return &PromptChooser{in: bufio.NewReader(in), out: out, prompt: prompt}
}

func (p *PromptChooser) Interactive() bool { return true }

func (p *PromptChooser) Choose(ctx context.Context, options []string) (string, error) {
	if len(options) == 0 {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(p.prompt)
	b.WriteByte('\n')
	for i, o := range options {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, o)
	}
	b.WriteString("> ")
	if _, err := io.WriteString(p.out, b.String()); err != nil {
		return "", fmt.Errorf("write prompt: %w", err)
	}
	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read choice: %w", err)
	}
	return MatchChoice(line, options), nil
}
