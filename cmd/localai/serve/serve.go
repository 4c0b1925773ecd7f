// Package servecmder runs the editor-facing daemon.
package servecmder

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	localai "github.com/Paranoid-AF/localai"
	"github.com/Paranoid-AF/localai/cmd/localai/cliopts"
	"github.com/Paranoid-AF/localai/serve"
	"github.com/Paranoid-AF/localai/watch"
)

const serveLongDesc string = `Run the daemon the editor talks to.

The daemon listens on a Unix socket for JSON-lines requests (chat, complete,
command and config) and reloads itself when config.toml or system_prompt.md
change.

Socket path: --socket, else $LOCALAI_SOCKET, else $XDG_RUNTIME_DIR/localai.sock,
else /tmp/localai-<uid>.sock.`

const serveShortDesc string = "Run the editor daemon"

type serveCommander struct {
	opts     *cliopts.Options
	sockPath string
}

func NewServeCmd(opts *cliopts.Options) *cobra.Command {
	cmder := &serveCommander{opts: opts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&cmder.sockPath, "socket", "s", "", "Unix socket path")

	return cmd
}

func (c *serveCommander) run(parent context.Context) error {
	log := c.opts.Logger()
	defer log.Sync()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng := c.opts.Engine(log.Named("engine"))
	defer eng.Close()

	watcher, err := watch.New(eng.ConfigPath(), func(cfg *localai.Config) {
		eng.Apply(cfg)
		log.Debug("engine updated", zap.String("endpoint", eng.Endpoint()))
	}, log.Named("watch"), eng.PromptPath())
	if err != nil {
		log.Warn("config watcher disabled", zap.Error(err))
	} else {
		defer watcher.Close()
		go watcher.Run(ctx)
	}

	sockPath := c.sockPath
	if sockPath == "" {
		sockPath = serve.ResolveSocketPath()
	}
	srv, err := serve.NewServer(sockPath, eng, log.Named("serve"))
	if err != nil {
		return fmt.Errorf("could not listen on %s: %w", sockPath, err)
	}
	defer srv.Close()

	log.Info("localai daemon listening",
		zap.String("socket", sockPath),
		zap.String("config", eng.ConfigPath()),
		zap.String("endpoint", eng.Endpoint()),
	)
	go func() {
		for _, n := range eng.StartupCheck(ctx) {
			log.Warn(n.Message)
		}
	}()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve() }()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		return nil
	case err := <-errCh:
		return err
	}
}
