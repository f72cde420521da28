package auth

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Prompter shows the operator an authorization URL and returns the code they
// paste back.
type Prompter interface {
	Prompt(ctx context.Context, authURL string) (string, error)
}

// TerminalPrompter reads the code from a line of terminal input.
type TerminalPrompter struct {
	In  io.Reader
	Out io.Writer
}

// Prompt prints authURL and waits for one line on In. The read runs in its own
// goroutine so a canceled ctx returns immediately; the goroutine ends when In
// delivers a line or EOF.
func (p *TerminalPrompter) Prompt(ctx context.Context, authURL string) (string, error) {
	fmt.Fprintf(p.Out, "Authorize this app by visiting this url:\n\n  %s\n\n", authURL)
	fmt.Fprint(p.Out, "Enter the code from that page here: ")

	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := bufio.NewReader(p.In).ReadString('\n')
		if err == io.EOF && line != "" {
			err = nil
		}
		ch <- result{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return "", fmt.Errorf("read code: %w", r.err)
		}
		code := strings.TrimSpace(r.line)
		if code == "" {
			return "", ErrNoCode
		}
		return code, nil
	}
}
