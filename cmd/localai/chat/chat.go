// Package chatcmder runs a single chat turn from the command line.
package chatcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	localai "github.com/Paranoid-AF/localai"
	"github.com/Paranoid-AF/localai/chat"
	"github.com/Paranoid-AF/localai/cmd/localai/cliopts"
	"github.com/Paranoid-AF/localai/prompt"
)

const chatLongDesc string = `Send one chat turn to the server and print the reply.

The reply streams to stdout as it arrives. With --markdown the full reply is
rendered once it is complete. A selection can be attached from a file, and
--command applies one of the code templates to it.

Examples:
  localai chat "How do I reverse a slice in Go?"
  localai chat --command explain --selection-file main.go
  localai chat --selection-file handler.go "Why does this leak goroutines?"`

const chatShortDesc string = "Send a chat prompt"

type chatCommander struct {
	opts          *cliopts.Options
	command       string
	selectionFile string
	language      string
	noStream      bool
	markdown      bool
}

func NewChatCmd(opts *cliopts.Options) *cobra.Command {
	cmder := &chatCommander{opts: opts}

	cmd := &cobra.Command{
		Use:   "chat [prompt...]",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVarP(&cmder.command, "command", "x", "", "Code command: "+strings.Join(prompt.Commands(), ", "))
	cmd.Flags().StringVarP(&cmder.selectionFile, "selection-file", "f", "", "Attach the contents of a file as the selection")
	cmd.Flags().StringVarP(&cmder.language, "language", "l", "", "Language of the selection (default: from the file extension)")
	cmd.Flags().BoolVar(&cmder.noStream, "no-stream", false, "Wait for the whole reply instead of streaming")
	cmd.Flags().BoolVar(&cmder.markdown, "markdown", false, "Render the reply as markdown")

	return cmd
}

func (c *chatCommander) request(text string) (*localai.ChatRequest, error) {
	if text == "" && c.command == "" {
		return nil, errors.New("a prompt or --command is required")
	}
	if c.command != "" && !prompt.IsCommand(c.command) {
		return nil, fmt.Errorf("unknown command %q (want one of %s)", c.command, strings.Join(prompt.Commands(), ", "))
	}

	req := &localai.ChatRequest{Prompt: text, Command: c.command}
	if c.selectionFile != "" {
		data, err := os.ReadFile(c.selectionFile)
		if err != nil {
			return nil, fmt.Errorf("could not read selection: %w", err)
		}
		lang := c.language
		if lang == "" {
			lang = cliopts.LanguageFor(c.selectionFile)
		}
		req.Selection = &localai.Selection{Text: string(data), Language: lang}
	}
	return req, nil
}

func (c *chatCommander) run(ctx context.Context, cmd *cobra.Command, text string) error {
	req, err := c.request(text)
	if err != nil {
		return err
	}

	log := c.opts.Logger()
	defer log.Sync()

	eng := c.opts.Engine(log)
	defer eng.Close()

	out := cmd.OutOrStdout()
	if c.noStream {
		reply, err := eng.ChatSync(ctx, req)
		if err != nil {
			var uerr *prompt.UserInputError
			if errors.As(err, &uerr) {
				cliopts.NewPrinter(out).Notice(localai.Notice{Severity: localai.SeverityWarning, Message: uerr.Message})
			}
			return err
		}
		return c.print(out, reply)
	}

	var renderer chat.Renderer = chat.RenderFunc(func(fragment string) error {
		_, err := io.WriteString(out, fragment)
		return err
	})
	if c.markdown {
		// Fragments are buffered by the session; print the whole reply at the end.
		renderer = chat.RenderFunc(func(string) error { return nil })
	}

	res := eng.Chat(ctx, req, renderer)
	if c.markdown {
		if err := c.print(out, res.Text); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(out)
	}
	return res.Err
}

func (c *chatCommander) print(out io.Writer, reply string) error {
	if !c.markdown {
		_, err := fmt.Fprintln(out, reply)
		return err
	}
	rendered, err := cliopts.RenderMarkdown(out, reply)
	if err != nil {
		return fmt.Errorf("could not render markdown: %w", err)
	}
	_, err = io.WriteString(out, rendered)
	return err
}
