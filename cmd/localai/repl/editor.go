package replcmder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// ErrInterrupt is returned when the user presses Ctrl-C.
var ErrInterrupt = errors.New("interrupted")

// Editor is a minimal line editor with prompt history. It reads from
// /dev/tty so the transcript on stdout can be redirected.
type Editor struct {
	in  *bufio.Reader
	out io.Writer

	buf     []rune
	pos     int // cursor index into buf
	history []string
	restore func()
}

// OpenEditor opens /dev/tty and switches it to raw mode.
func OpenEditor() (*Editor, error) {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open /dev/tty: %w", err)
	}

	old, err := term.MakeRaw(int(tty.Fd()))
	if err != nil {
		tty.Close()
		return nil, fmt.Errorf("raw mode: %w", err)
	}

	e := newEditor(tty, tty)
	e.restore = func() {
		term.Restore(int(tty.Fd()), old)
		tty.Close()
	}
	return e, nil
}

func newEditor(in io.Reader, out io.Writer) *Editor {
	return &Editor{in: bufio.NewReader(in), out: out}
}

// Close restores the terminal state.
func (e *Editor) Close() {
	if e.restore != nil {
		e.restore()
	}
}

// Output returns the writer prompts and replies are drawn on.
func (e *Editor) Output() io.Writer { return e.out }

// ReadLine displays prompt and reads one line. Up and Down walk the lines
// entered earlier. Returns io.EOF when the user presses Ctrl-D on an empty line.
func (e *Editor) ReadLine(prompt string) (string, error) {
	e.buf = e.buf[:0]
	e.pos = 0
	recall := len(e.history)
	e.redraw(prompt)

	for {
		r, _, err := e.in.ReadRune()
		if err != nil {
			return "", err
		}

		switch r {
		case 3: // Ctrl-C
			fmt.Fprint(e.out, "\r\n")
			return "", ErrInterrupt

		case 4: // Ctrl-D
			if len(e.buf) == 0 {
				fmt.Fprint(e.out, "\r\n")
				return "", io.EOF
			}

		case '\r', '\n':
			fmt.Fprint(e.out, "\r\n")
			line := string(e.buf)
			if line != "" {
				e.history = append(e.history, line)
			}
			return line, nil

		case 127, 8: // Backspace / Ctrl-H
			if e.pos > 0 {
				e.buf = append(e.buf[:e.pos-1], e.buf[e.pos:]...)
				e.pos--
			}

		case 1: // Ctrl-A
			e.pos = 0

		case 5: // Ctrl-E
			e.pos = len(e.buf)

		case 21: // Ctrl-U
			e.buf = e.buf[:0]
			e.pos = 0

		case 27:
			recall = e.escape(recall)

		default:
			if r >= 32 {
				e.buf = append(e.buf, 0)
				copy(e.buf[e.pos+1:], e.buf[e.pos:])
				e.buf[e.pos] = r
				e.pos++
			}
		}

		e.redraw(prompt)
	}
}

// escape handles a CSI sequence and returns the updated history position.
func (e *Editor) escape(recall int) int {
	if r, _, err := e.in.ReadRune(); err != nil || r != '[' {
		return recall
	}
	code, _, err := e.in.ReadRune()
	if err != nil {
		return recall
	}

	switch code {
	case 'A': // Up
		if recall > 0 {
			recall--
			e.set(e.history[recall])
		}
	case 'B': // Down
		if recall < len(e.history)-1 {
			recall++
			e.set(e.history[recall])
		} else if recall < len(e.history) {
			recall = len(e.history)
			e.set("")
		}
	case 'C': // Right
		if e.pos < len(e.buf) {
			e.pos++
		}
	case 'D': // Left
		if e.pos > 0 {
			e.pos--
		}
	case 'H':
		e.pos = 0
	case 'F':
		e.pos = len(e.buf)
	case '3': // Delete: \x1b[3~
		e.in.ReadRune()
		if e.pos < len(e.buf) {
			e.buf = append(e.buf[:e.pos], e.buf[e.pos+1:]...)
		}
	}
	return recall
}

func (e *Editor) set(line string) {
	e.buf = append(e.buf[:0], []rune(line)...)
	e.pos = len(e.buf)
}

// redraw clears the current line and draws prompt and buffer with the cursor in place.
func (e *Editor) redraw(prompt string) {
	fmt.Fprintf(e.out, "\r\x1b[K%s%s", prompt, string(e.buf))
	if tail := len(e.buf) - e.pos; tail > 0 {
		fmt.Fprintf(e.out, "\x1b[%dD", tail)
	}
}
