package console

import (
	"context"
	"errors"
	"io"
	"os"

	"golang.org/x/term"
)

// Terminal is a raw-mode line editor over a tty. It is safe to write to
// from other goroutines while a line is being edited, which lets log output
// share the screen with the prompt.
type Terminal struct {
	*term.Terminal
	fd    int
	state *term.State
}

// OpenTerminal puts in into raw mode and returns an editor reading from in
// and writing to out. Close restores the previous mode.
func OpenTerminal(in *os.File, out io.Writer) (*Terminal, error) {
	fd := int(in.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	rw := struct {
		io.Reader
		io.Writer
	}{in, out}
	return &Terminal{
		Terminal: term.NewTerminal(rw, Prompt),
		fd:       fd,
		state:    state,
	}, nil
}

// Close restores the terminal mode.
func (t *Terminal) Close() error {
	return term.Restore(t.fd, t.state)
}

// RunTerminal reads commands with line editing, history and tab completion
// until exit, Ctrl-D or Ctrl-C.
func (c *Console) RunTerminal(ctx context.Context, t *Terminal) error {
	t.AutoCompleteCallback = c.autoComplete
	for {
		line, err := t.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if c.Execute(ctx, line) {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}
