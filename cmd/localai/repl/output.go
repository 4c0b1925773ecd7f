package replcmder

import (
	"bytes"
	"io"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/Paranoid-AF/localai/cmd/localai/cliopts"
)

// termWriter converts \n to \r\n when w is a terminal, since raw mode turns
// off the kernel's newline translation. Anything else passes through unchanged.
func termWriter(w io.Writer) io.Writer {
	if cliopts.IsTerminal(w) {
		return &crlfWriter{w: w}
	}
	return w
}

type crlfWriter struct {
	w io.Writer
}

func (c *crlfWriter) Write(p []byte) (int, error) {
	replaced := bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))
	_, err := c.w.Write(replaced)
	return len(p), err // report original length to caller
}

// entry is one turn of the transcript.
type entry struct {
	Timestamp   time.Time `toml:"timestamp"`
	Prompt      string    `toml:"prompt"`
	Command     string    `toml:"command,omitempty"`
	Language    string    `toml:"language,omitempty"`
	Reply       string    `toml:"reply"`
	Unreachable bool      `toml:"unreachable,omitempty"`
	Error       string    `toml:"error,omitempty"`
}

// writeEntry appends e to w as a [[turn]] table.
func writeEntry(w io.Writer, e entry) error {
	return toml.NewEncoder(w).Encode(struct {
		Turn []entry `toml:"turn"`
	}{[]entry{e}})
}
