package overrides

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/scopecard/internal/ir"
)

// PromptWriter asks for a destination path before writing. Answering
// "cancel", or closing the input, abandons the save.
type PromptWriter struct {
	In      io.Reader
	Out     io.Writer
	Default string
}

// Persist implements Persister.
func (w PromptWriter) Persist(ctx context.Context, rules []ir.SessionRule) (string, error) {
	if w.In == nil {
		return "", ErrAbandoned
	}
	if w.Out != nil {
		if w.Default != "" {
			fmt.Fprintf(w.Out, "Save sessions configuration to [%s] (or 'cancel'): ", w.Default)
		} else {
			fmt.Fprint(w.Out, "Save sessions configuration to (or 'cancel'): ")
		}
	}

	line, err := bufio.NewReader(w.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("prompt: %w", err)
	}
	answer := strings.TrimSpace(line)
	if errors.Is(err, io.EOF) && answer == "" {
		return "", ErrAbandoned
	}
	if strings.EqualFold(answer, "cancel") {
		return "", ErrAbandoned
	}
	if answer == "" {
		answer = w.Default
	}
	if answer == "" {
		return "", ErrAbandoned
	}

	return FileWriter{Path: answer}.Persist(ctx, rules)
}
