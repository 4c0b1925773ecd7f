// Package replcmder is an interactive chat loop on the terminal. Replies
// stream to the tty; when stdout is redirected each turn is also written
// there as TOML.
//
// Usage:
//
//	localai repl              # interactive
//	localai repl > chat.toml  # prompt on screen, transcript to file
package replcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	localai "github.com/Paranoid-AF/localai"
	"github.com/Paranoid-AF/localai/chat"
	"github.com/Paranoid-AF/localai/cmd/localai/cliopts"
	"github.com/Paranoid-AF/localai/prompt"
)

const replLongDesc string = `Chat with the server interactively, keeping the conversation history.

Commands:
  :select <file>   attach a file as the selection
  :unselect        drop the selection
  :clear           forget the conversation
  :quit            exit
  /<command>       run a code command on the selection (explain, fix, ...)`

const replShortDesc string = "Interactive chat"

const linePrompt = "> "

type lineReader interface {
	ReadLine(prompt string) (string, error)
}

type chatEngine interface {
	Chat(ctx context.Context, req *localai.ChatRequest, r chat.Renderer) chat.Result
}

type replCommander struct {
	opts *cliopts.Options
}

func NewReplCmd(opts *cliopts.Options) *cobra.Command {
	cmder := &replCommander{opts: opts}

	return &cobra.Command{
		Use:   "repl",
		Short: replShortDesc,
		Long:  replLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context())
		},
	}
}

func (c *replCommander) run(ctx context.Context) error {
	editor, err := OpenEditor()
	if err != nil {
		return err
	}
	defer editor.Close()

	log := c.opts.Logger()
	defer log.Sync()

	eng := c.opts.Engine(log)
	defer eng.Close()

	tty := termWriter(editor.Output())
	fmt.Fprint(tty, "\033[2J\033[H") // clear screen
	fmt.Fprintf(tty, "localai repl (%s)\n", eng.Endpoint())
	fmt.Fprintln(tty, "type :quit to exit")
	fmt.Fprintln(tty)

	s := newSession(eng, tty)
	if !cliopts.IsTerminal(os.Stdout) {
		s.transcript = os.Stdout
	}
	return s.loop(ctx, editor)
}

// session is the state of one REPL run.
type session struct {
	engine     chatEngine
	tty        io.Writer
	printer    *cliopts.Printer
	transcript io.Writer

	history   []localai.Turn
	selection *localai.Selection
}

func newSession(engine chatEngine, tty io.Writer) *session {
	return &session{engine: engine, tty: tty, printer: cliopts.NewPrinter(tty)}
}

func (s *session) loop(ctx context.Context, in lineReader) error {
	for {
		line, err := in.ReadLine(linePrompt)
		if err == io.EOF || errors.Is(err, ErrInterrupt) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read error: %w", err)
		}
		if s.handle(ctx, strings.TrimSpace(line)) {
			return nil
		}
	}
}

// handle processes one input line and reports whether the loop should stop.
func (s *session) handle(ctx context.Context, line string) bool {
	switch {
	case line == "":
		return false
	case line == ":quit" || line == ":q":
		return true
	case line == ":clear":
		s.history = nil
		s.printer.Faint("conversation cleared")
		return false
	case line == ":unselect":
		s.selection = nil
		s.printer.Faint("selection dropped")
		return false
	case strings.HasPrefix(line, ":select "):
		s.selectFile(strings.TrimSpace(strings.TrimPrefix(line, ":select ")))
		return false
	case strings.HasPrefix(line, "/"):
		name, rest, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
		if !prompt.IsCommand(name) {
			s.printer.Notice(localai.Notice{
				Severity: localai.SeverityWarning,
				Message:  fmt.Sprintf("unknown command /%s (want one of %s)", name, strings.Join(prompt.Commands(), ", ")),
			})
			return false
		}
		s.send(ctx, &localai.ChatRequest{Prompt: strings.TrimSpace(rest), Command: name})
		return false
	case strings.HasPrefix(line, ":"):
		s.printer.Notice(localai.Notice{Severity: localai.SeverityWarning, Message: "unknown directive " + line})
		return false
	}
	s.send(ctx, &localai.ChatRequest{Prompt: line})
	return false
}

func (s *session) selectFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		s.printer.Notice(localai.Notice{Severity: localai.SeverityError, Message: err.Error()})
		return
	}
	s.selection = &localai.Selection{Text: string(data), Language: cliopts.LanguageFor(path)}
	s.printer.Faint("selected %s (%d lines)", path, strings.Count(string(data), "\n")+1)
}

func (s *session) send(ctx context.Context, req *localai.ChatRequest) {
	req.History = s.history
	req.Selection = s.selection

	res := s.engine.Chat(ctx, req, chat.RenderFunc(func(fragment string) error {
		_, err := io.WriteString(s.tty, fragment)
		return err
	}))
	fmt.Fprint(s.tty, "\n\n")

	if res.Err == nil && !res.Unreachable {
		user := req.Prompt
		if user == "" {
			user = "/" + req.Command
		}
		s.history = append(s.history,
			localai.Turn{Role: localai.RoleUser, Prompt: user},
			localai.Turn{Role: localai.RoleAssistant, Parts: []string{res.Text}},
		)
	}

	if s.transcript != nil {
		e := entry{
			Timestamp:   time.Now(),
			Prompt:      req.Prompt,
			Command:     req.Command,
			Reply:       res.Text,
			Unreachable: res.Unreachable,
		}
		if s.selection != nil {
			e.Language = s.selection.Language
		}
		if res.Err != nil {
			e.Error = res.Err.Error()
		}
		writeEntry(s.transcript, e)
	}
}
