// Package actioncmder implements the host command shortcuts as subcommands.
package actioncmder

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	localai "github.com/Paranoid-AF/localai"
	"github.com/Paranoid-AF/localai/cmd/localai/cliopts"
)

const testConnectionLongDesc string = `Check that the configured server answers on /v1/models.

Exits non-zero when the server cannot be reached.`

const testConnectionShortDesc string = "Test the connection to the server"

const configureEndpointLongDesc string = `Persist a new server endpoint to config.toml and probe it.

Examples:
  localai configure-endpoint http://localhost:8080
  localai configure-endpoint http://gpu-box:11434`

const configureEndpointShortDesc string = "Set the server endpoint"

const toggleCompletionShortDesc string = "Enable or disable inline completion"

var errConnection = errors.New("connection test failed")

type actionCommander struct {
	opts *cliopts.Options
}

func (c *actionCommander) run(ctx context.Context, cmd *cobra.Command, req *localai.CommandRequest) error {
	log := c.opts.Logger()
	defer log.Sync()

	eng := c.opts.Engine(log)
	defer eng.Close()

	notices, err := eng.Command(ctx, req)
	cliopts.NewPrinter(cmd.OutOrStdout()).Notices(notices)
	if err != nil {
		return err
	}
	if req.Name == localai.CommandTestConnection && cliopts.HasFailure(notices) {
		return errConnection
	}
	return nil
}

func NewTestConnectionCmd(opts *cliopts.Options) *cobra.Command {
	cmder := &actionCommander{opts: opts}

	return &cobra.Command{
		Use:   "test-connection",
		Short: testConnectionShortDesc,
		Long:  testConnectionLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd, &localai.CommandRequest{Name: localai.CommandTestConnection})
		},
	}
}

func NewConfigureEndpointCmd(opts *cliopts.Options) *cobra.Command {
	cmder := &actionCommander{opts: opts}

	return &cobra.Command{
		Use:   "configure-endpoint <url>",
		Short: configureEndpointShortDesc,
		Long:  configureEndpointLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, &localai.CommandRequest{
				Name:     localai.CommandConfigureEndpoint,
				Endpoint: args[0],
			})
		},
	}
}

func NewToggleCompletionCmd(opts *cliopts.Options) *cobra.Command {
	cmder := &actionCommander{opts: opts}

	return &cobra.Command{
		Use:   "toggle-completion",
		Short: toggleCompletionShortDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd, &localai.CommandRequest{Name: localai.CommandToggleCompletion})
		},
	}
}
