package replcmder

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	localai "github.com/Paranoid-AF/localai"
	"github.com/Paranoid-AF/localai/chat"
)

// scriptedInput replays lines, then reports EOF.
type scriptedInput struct {
	lines []string
}

func (s *scriptedInput) ReadLine(string) (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

// echoEngine replies with the prompt and records every request.
type echoEngine struct {
	requests []*localai.ChatRequest
	result   chat.Result
}

func (e *echoEngine) Chat(_ context.Context, req *localai.ChatRequest, r chat.Renderer) chat.Result {
	copied := *req
	e.requests = append(e.requests, &copied)
	if e.result.Err != nil || e.result.Unreachable {
		return e.result
	}
	reply := "echo: " + req.Prompt
	r.Render(reply)
	return chat.Result{Command: req.Command, Text: reply}
}

var _ = Describe("REPL session", func() {
	var (
		engine *echoEngine
		tty    *bytes.Buffer
		s      *session
	)

	BeforeEach(func() {
		engine = &echoEngine{}
		tty = &bytes.Buffer{}
		s = newSession(engine, tty)
	})

	run := func(lines ...string) {
		Expect(s.loop(context.Background(), &scriptedInput{lines: lines})).To(Succeed())
	}

	It("streams replies to the terminal and keeps history", func() {
		run("first", "second")

		Expect(tty.String()).To(ContainSubstring("echo: first"))
		Expect(engine.requests).To(HaveLen(2))
		Expect(engine.requests[0].History).To(BeEmpty())
		Expect(engine.requests[1].History).To(Equal([]localai.Turn{
			{Role: localai.RoleUser, Prompt: "first"},
			{Role: localai.RoleAssistant, Parts: []string{"echo: first"}},
		}))
	})

	It("stops at :quit", func() {
		run("one", ":quit", "never")
		Expect(engine.requests).To(HaveLen(1))
	})

	It("forgets the conversation on :clear", func() {
		run("one", ":clear", "two")
		Expect(engine.requests[1].History).To(BeEmpty())
		Expect(tty.String()).To(ContainSubstring("conversation cleared"))
	})

	It("attaches a selected file to later requests", func() {
		src := filepath.Join(GinkgoT().TempDir(), "util.py")
		Expect(os.WriteFile(src, []byte("def f():\n    pass"), 0644)).To(Succeed())

		run(":select "+src, "/explain", ":unselect", "plain")

		Expect(engine.requests).To(HaveLen(2))
		Expect(engine.requests[0].Command).To(Equal("explain"))
		Expect(engine.requests[0].Selection).To(Equal(&localai.Selection{Text: "def f():\n    pass", Language: "python"}))
		Expect(engine.requests[1].Selection).To(BeNil())
		Expect(engine.requests[1].History[0].Prompt).To(Equal("/explain"))
	})

	It("warns about unknown commands without sending anything", func() {
		run("/rewrite this", ":bogus")
		Expect(engine.requests).To(BeEmpty())
		Expect(tty.String()).To(ContainSubstring("unknown command /rewrite"))
		Expect(tty.String()).To(ContainSubstring("unknown directive :bogus"))
	})

	It("does not record failed turns in the history", func() {
		engine.result = chat.Result{Err: errors.New("LocalAI request failed (status 500)")}
		run("one", "two")
		Expect(engine.requests[1].History).To(BeEmpty())
	})

	It("writes a TOML transcript", func() {
		var transcript bytes.Buffer
		s.transcript = &transcript
		run("hello", "again")

		var parsed struct {
			Turn []entry `toml:"turn"`
		}
		_, err := toml.Decode(transcript.String(), &parsed)
		Expect(err).NotTo(HaveOccurred())
		Expect(parsed.Turn).To(HaveLen(2))
		Expect(parsed.Turn[0].Prompt).To(Equal("hello"))
		Expect(parsed.Turn[1].Reply).To(Equal("echo: again"))
	})
})

var _ = Describe("Editor", func() {
	read := func(input string) ([]string, error) {
		e := newEditor(strings.NewReader(input), io.Discard)
		var lines []string
		for {
			line, err := e.ReadLine("> ")
			if err != nil {
				return lines, err
			}
			lines = append(lines, line)
		}
	}

	It("reads lines until Ctrl-D", func() {
		lines, err := read("hello\rworld\r\x04")
		Expect(err).To(Equal(io.EOF))
		Expect(lines).To(Equal([]string{"hello", "world"}))
	})

	It("edits in the middle of the line", func() {
		// "helo", Left, insert "l", End, Backspace, "!"
		lines, _ := read("helo\x1b[Dl\x05\x7f!\r\x04")
		Expect(lines).To(Equal([]string{"hell!"}))
	})

	It("handles multi-byte input", func() {
		lines, _ := read("héllo 世界\x1b[D\x1b[D\x1b[3~\r\x04")
		Expect(lines).To(Equal([]string{"héllo 界"}))
	})

	It("recalls earlier lines with the arrow keys", func() {
		lines, _ := read("first\rsecond\r\x1b[A\x1b[A\r\x1b[A\x1b[B\x1b[B!\r\x04")
		Expect(lines).To(Equal([]string{"first", "second", "first", "!"}))
	})

	It("returns ErrInterrupt on Ctrl-C", func() {
		_, err := read("abc\x03")
		Expect(err).To(MatchError(ErrInterrupt))
	})

	It("clears the line with Ctrl-U", func() {
		lines, _ := read("junk\x15ok\r\x04")
		Expect(lines).To(Equal([]string{"ok"}))
	})
})

var _ = Describe("termWriter", func() {
	It("passes newlines through for non-terminals", func() {
		var buf bytes.Buffer
		w := termWriter(&buf)
		io.WriteString(w, "a\nb")
		Expect(buf.String()).To(Equal("a\nb"))
	})

	It("translates newlines in raw mode", func() {
		var buf bytes.Buffer
		w := &crlfWriter{w: &buf}
		n, err := io.WriteString(w, "a\nb")
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(3))
		Expect(buf.String()).To(Equal("a\r\nb"))
	})
})
