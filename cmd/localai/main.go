// Command localai bridges an editor to a local OpenAI-compatible server.
//
// Usage:
//
//	localai serve                        # daemon on the editor socket
//	localai chat "what does this do?"    # one chat turn on stdout
//	localai complete main.go --line 10   # one inline suggestion
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Paranoid-AF/localai/cmd/localai/action"
	"github.com/Paranoid-AF/localai/cmd/localai/chat"
	"github.com/Paranoid-AF/localai/cmd/localai/cliopts"
	"github.com/Paranoid-AF/localai/cmd/localai/complete"
	"github.com/Paranoid-AF/localai/cmd/localai/repl"
	"github.com/Paranoid-AF/localai/cmd/localai/serve"
	"github.com/Paranoid-AF/localai/cmd/localai/version"
)

const rootLongDesc string = `localai connects a code editor to a local OpenAI-compatible server
(LocalAI, llama.cpp server, vLLM and friends).

Configuration is read from $LOCALAI_CONFIG_DIR/config.toml,
$XDG_CONFIG_HOME/localai/config.toml or ~/.config/localai/config.toml.`

const rootShortDesc string = "Editor bridge for a local OpenAI-compatible server"

func newRootCmd() *cobra.Command {
	opts := &cliopts.Options{}

	cmd := &cobra.Command{
		Use:          "localai",
		Short:        rootShortDesc,
		Long:         rootLongDesc,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to config.toml")

	cmd.AddCommand(servecmder.NewServeCmd(opts))
	cmd.AddCommand(chatcmder.NewChatCmd(opts))
	cmd.AddCommand(completecmder.NewCompleteCmd(opts))
	cmd.AddCommand(actioncmder.NewTestConnectionCmd(opts))
	cmd.AddCommand(actioncmder.NewConfigureEndpointCmd(opts))
	cmd.AddCommand(actioncmder.NewToggleCompletionCmd(opts))
	cmd.AddCommand(replcmder.NewReplCmd(opts))
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
