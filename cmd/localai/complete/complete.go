// Package completecmder requests one inline suggestion for a file position.
package completecmder

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	localai "github.com/Paranoid-AF/localai"
	"github.com/Paranoid-AF/localai/cmd/localai/cliopts"
)

const completeLongDesc string = `Ask for the inline suggestion at a position in a file.

Line and character are zero-based. The suggestion is printed as is; nothing is
printed when the server has no suggestion or completion is disabled.

Examples:
  localai complete main.go --line 41 --char 8
  localai complete deploy.sh --line 3 --language shellscript`

const completeShortDesc string = "Print the inline suggestion for a file position"

type completeCommander struct {
	opts      *cliopts.Options
	line      int
	character int
	language  string
}

func NewCompleteCmd(opts *cliopts.Options) *cobra.Command {
	cmder := &completeCommander{opts: opts}

	cmd := &cobra.Command{
		Use:   "complete <file>",
		Short: completeShortDesc,
		Long:  completeLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args[0])
		},
	}

	cmd.Flags().IntVar(&cmder.line, "line", 0, "Zero-based cursor line")
	cmd.Flags().IntVar(&cmder.character, "char", 0, "Zero-based cursor character within the line")
	cmd.Flags().StringVarP(&cmder.language, "language", "l", "", "Language id (default: from the file extension)")

	return cmd
}

func (c *completeCommander) run(ctx context.Context, cmd *cobra.Command, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read %s: %w", path, err)
	}
	lang := c.language
	if lang == "" {
		lang = cliopts.LanguageFor(path)
	}

	log := c.opts.Logger()
	defer log.Sync()

	eng := c.opts.Engine(log)
	defer eng.Close()

	suggestion := eng.Suggest(ctx, localai.Document{
		Text:      string(data),
		Language:  lang,
		FileName:  path,
		Line:      c.line,
		Character: c.character,
	})
	if suggestion != "" {
		fmt.Fprintln(cmd.OutOrStdout(), suggestion)
	}
	return nil
}
