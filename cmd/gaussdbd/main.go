// Package main provides the gaussdbd daemon.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/canonical/lxd/shared/logger"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/gaussdb/gaussdb-mcp/internal/config"
	"github.com/gaussdb/gaussdb-mcp/internal/daemon"
	"github.com/gaussdb/gaussdb-mcp/internal/version"
)

type cmdGlobal struct {
	flagHelp    bool
	flagVersion bool

	flagLogDebug   bool
	flagLogVerbose bool

	flagConfig string
}

type cmdDaemon struct {
	global *cmdGlobal

	flagStateDir    string
	flagSocketGroup string
	flagListen      string
	flagAPI         bool
	flagStdio       bool
}

func (c *cmdDaemon) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gaussdbd",
		Short: "GaussDB tool server - answers MCP requests on stdin and optionally serves the HTTP API",
		Example: `  gaussdbd
    gaussdbd --stdio=false --api --listen 127.0.0.1:8090`,
		Version: version.Version(),
	}

	cmd.RunE = c.run

	return cmd
}

func (c *cmdDaemon) run(cmd *cobra.Command, args []string) error {
	if !c.flagStdio && !c.flagAPI && c.flagListen == "" {
		return errors.New("Nothing to serve, enable --stdio, --api or --listen")
	}

	cfg, err := config.Load(c.global.flagConfig)
	if err != nil {
		return err
	}

	err = logger.InitLogger(cfg.LogFile, "", c.global.flagLogVerbose, c.global.flagLogDebug, nil)
	if err != nil {
		return fmt.Errorf("Failed to initialize logger: %w", err)
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), unix.SIGPWR, unix.SIGTERM, unix.SIGINT, unix.SIGQUIT)
	defer cancel()

	d := daemon.NewDaemon(version.Version())
	err = d.Init(daemon.Args{
		Config:        cfg,
		StateDir:      c.flagStateDir,
		SocketGroup:   c.flagSocketGroup,
		ListenAddress: c.flagListen,
		API:           c.flagAPI,
	})
	if err != nil {
		_ = d.Stop()
		return err
	}

	stdioDone := make(chan error, 1)
	if c.flagStdio {
		go func() {
			stdioDone <- d.ServeStdio(os.Stdin, os.Stdout)
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal, stopping")
	case <-d.ShutdownRequested:
		logger.Info("Shutdown requested over the API, stopping")
	case err = <-stdioDone:
		if err != nil {
			logger.Error("MCP session ended with an error", logger.Ctx{"err": err})
		} else {
			logger.Info("MCP client closed stdin, stopping")
		}
	}

	stopErr := d.Stop()
	if stopErr != nil {
		return fmt.Errorf("Failed to stop daemon: %w", stopErr)
	}

	return err
}

func main() {
	daemonCmd := cmdDaemon{global: &cmdGlobal{}}
	app := daemonCmd.command()
	app.SilenceUsage = true
	app.CompletionOptions = cobra.CompletionOptions{DisableDefaultCmd: true}

	app.PersistentFlags().BoolVarP(&daemonCmd.global.flagHelp, "help", "h", false, "Print help")
	app.PersistentFlags().BoolVar(&daemonCmd.global.flagVersion, "version", false, "Print version number")
	app.PersistentFlags().BoolVarP(&daemonCmd.global.flagLogDebug, "debug", "d", false, "Show all debug messages")
	app.PersistentFlags().BoolVarP(&daemonCmd.global.flagLogVerbose, "verbose", "v", false, "Show all information messages")
	app.PersistentFlags().StringVar(&daemonCmd.global.flagConfig, "config", "", "Path of the YAML configuration file"+"``")

	app.Flags().StringVar(&daemonCmd.flagStateDir, "state-dir", "", "Path to store state information"+"``")
	app.Flags().StringVar(&daemonCmd.flagSocketGroup, "socket-group", "", "Group to set socket's group ownership to")
	app.Flags().StringVar(&daemonCmd.flagListen, "listen", "", "Address to serve the HTTP API on, in addition to the control socket")
	app.Flags().BoolVar(&daemonCmd.flagAPI, "api", false, "Serve the HTTP API on the control socket")
	app.Flags().BoolVar(&daemonCmd.flagStdio, "stdio", true, "Answer MCP requests on stdin and stdout")

	app.SetVersionTemplate("{{.Version}}\n")

	var cmdConfig = cmdConfig{global: daemonCmd.global}
	app.AddCommand(cmdConfig.command())

	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
