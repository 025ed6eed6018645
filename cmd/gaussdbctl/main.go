// Package main provides the gaussdbctl client tool.
package main

import (
	"fmt"
	"net/url"
	"os"

	"github.com/canonical/lxd/shared/api"
	"github.com/spf13/cobra"

	"github.com/gaussdb/gaussdb-mcp/internal/rest/client"
	"github.com/gaussdb/gaussdb-mcp/internal/sys"
	"github.com/gaussdb/gaussdb-mcp/internal/tools"
	"github.com/gaussdb/gaussdb-mcp/internal/version"
)

// CmdControl has functions that are common to the gaussdbctl commands.
type CmdControl struct {
	FlagHelp     bool
	FlagVersion  bool
	FlagStateDir string
	FlagURL      string
	FlagToken    string
}

// Client returns a client for the daemon at --url, or for the control socket in the state directory.
func (c *CmdControl) Client() (*client.Client, error) {
	if c.FlagURL != "" {
		u, err := url.Parse(c.FlagURL)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("Invalid daemon URL %q", c.FlagURL)
		}

		cl, err := client.New(*api.NewURL().Scheme(u.Scheme).Host(u.Host))
		if err != nil {
			return nil, err
		}

		return cl.WithToken(c.FlagToken), nil
	}

	stateDir := c.FlagStateDir
	if stateDir == "" {
		stateDir = os.Getenv(sys.StateDir)
	}

	fs, err := sys.DefaultOS(stateDir, false)
	if err != nil {
		return nil, err
	}

	return client.New(fs.ControlSocket())
}

func main() {
	// common flags.
	commonCmd := CmdControl{}

	app := &cobra.Command{
		Use:               "gaussdbctl",
		Short:             "Command for running database tools through the gaussdbd daemon",
		Version:           version.Version(),
		SilenceUsage:      true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	}

	app.PersistentFlags().StringVar(&commonCmd.FlagStateDir, "state-dir", "", "Path to store state information"+"``")
	app.PersistentFlags().StringVar(&commonCmd.FlagURL, "url", "", "URL of a daemon serving the HTTP API over the network"+"``")
	app.PersistentFlags().StringVar(&commonCmd.FlagToken, "token", os.Getenv(sys.APIToken), "Bearer token for the daemon at --url"+"``")
	app.PersistentFlags().BoolVarP(&commonCmd.FlagHelp, "help", "h", false, "Print help")
	app.PersistentFlags().BoolVar(&commonCmd.FlagVersion, "version", false, "Print version number")

	app.SetVersionTemplate("{{.Version}}\n")

	var cmdInfo = cmdInfo{common: &commonCmd}
	app.AddCommand(cmdInfo.command())

	var cmdTools = cmdTools{common: &commonCmd}
	app.AddCommand(cmdTools.command())

	var cmdCall = cmdCall{common: &commonCmd}
	app.AddCommand(cmdCall.command())

	var cmdWaitready = cmdWaitready{common: &commonCmd}
	app.AddCommand(cmdWaitready.command())

	var cmdShutdown = cmdShutdown{common: &commonCmd}
	app.AddCommand(cmdShutdown.command())

	// One subcommand per tool, with a flag per argument.
	for _, tool := range tools.NewCatalog(nil).List() {
		var cmdTool = cmdTool{common: &commonCmd, tool: tool}
		app.AddCommand(cmdTool.command())
	}

	app.InitDefaultHelpCmd()

	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
