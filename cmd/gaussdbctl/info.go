package main

import (
	"fmt"
	"sort"
	"strings"

	cli "github.com/canonical/lxd/shared/cmd"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gaussdb/gaussdb-mcp/internal/extensions"
)

type cmdInfo struct {
	common *CmdControl
}

func (c *cmdInfo) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show information about the daemon and the database it serves",
		RunE:  c.run,
	}

	return cmd
}

func (c *cmdInfo) run(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return cmd.Help()
	}

	client, err := c.common.Client()
	if err != nil {
		return err
	}

	server, err := client.GetServer(cmd.Context())
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(server)
	if err != nil {
		return err
	}

	fmt.Print(string(out))

	return nil
}

type cmdTools struct {
	common *CmdControl

	flagFormat string
}

func (c *cmdTools) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools [<name>]",
		Short: "List the tools served by the daemon, or show the definition of one",
		RunE:  c.run,
	}

	cmd.Flags().StringVarP(&c.flagFormat, "format", "f", cli.TableFormatTable, "Format (csv|json|table|yaml|compact)")

	return cmd
}

func (c *cmdTools) run(cmd *cobra.Command, args []string) error {
	if len(args) > 1 {
		return cmd.Help()
	}

	client, err := c.common.Client()
	if err != nil {
		return err
	}

	if len(args) == 1 {
		server, err := client.GetServer(cmd.Context())
		if err != nil {
			return err
		}

		registry, err := extensions.NewExtensionRegistryFromList(server.APIExtensions)
		if err != nil {
			return err
		}

		if !registry.HasExtension("tool_definitions") {
			return fmt.Errorf("The daemon does not support showing a single tool")
		}

		tool, err := client.GetTool(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out, err := yaml.Marshal(tool)
		if err != nil {
			return err
		}

		fmt.Print(string(out))

		return nil
	}

	tools, err := client.ListTools(cmd.Context())
	if err != nil {
		return err
	}

	data := make([][]string, len(tools))
	for i, tool := range tools {
		data[i] = []string{tool.Name, strings.Join(tool.InputSchema.Required, ", "), tool.Description}
	}

	header := []string{"NAME", "REQUIRED", "DESCRIPTION"}
	sort.Sort(cli.SortColumnsNaturally(data))

	return cli.RenderTable(c.flagFormat, header, data, tools)
}
