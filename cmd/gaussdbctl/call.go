package main

import (
	"fmt"
	"strings"

	cli "github.com/canonical/lxd/shared/cmd"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gaussdb/gaussdb-mcp/internal/rest/types"
)

type cmdCall struct {
	common *CmdControl

	flagArgs string
}

func (c *cmdCall) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <tool> [<key>=<value>...]",
		Short: "Call a tool with raw arguments",
		Example: `  gaussdbctl call select table_name=users
    gaussdbctl call insert --args '{table_name: users, data: {id: 1, name: John}}'`,
		RunE: c.run,
	}

	cmd.Flags().StringVar(&c.flagArgs, "args", "", "Arguments as a YAML or JSON object")

	return cmd
}

func (c *cmdCall) run(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return cmd.Help()
	}

	arguments := map[string]any{}
	if c.flagArgs != "" {
		err := yaml.Unmarshal([]byte(c.flagArgs), &arguments)
		if err != nil {
			return fmt.Errorf("Failed to parse arguments: %w", err)
		}
	}

	for _, setting := range args[1:] {
		key, value, ok := strings.Cut(setting, "=")
		if !ok {
			return fmt.Errorf("Malformed argument %q, expected <key>=<value>", setting)
		}

		parsed, err := parseValue(value)
		if err != nil {
			return fmt.Errorf("Failed to parse argument %q: %w", key, err)
		}

		arguments[key] = parsed
	}

	client, err := c.common.Client()
	if err != nil {
		return err
	}

	text, err := client.CallTool(cmd.Context(), args[0], arguments)
	if err != nil {
		return err
	}

	fmt.Println(text)

	return nil
}

// parseValue reads a value as YAML so objects and numbers keep their type, falling back to the raw string.
func parseValue(value string) (any, error) {
	if value == "" {
		return "", nil
	}

	var parsed any
	err := yaml.Unmarshal([]byte(value), &parsed)
	if err != nil {
		return nil, err
	}

	return parsed, nil
}

// cmdTool runs a single tool, taking each of its arguments as a flag.
type cmdTool struct {
	common *CmdControl
	tool   types.Tool

	flags      map[string]*string
	flagFormat string
}

func (c *cmdTool) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   c.tool.Name,
		Short: c.tool.Description,
		RunE:  c.run,
	}

	c.flags = make(map[string]*string, len(c.tool.InputSchema.Properties))
	for name, property := range c.tool.InputSchema.Properties {
		usage := property.Description
		if property.Type == "object" {
			usage += " (YAML or JSON object)"
		}

		c.flags[name] = cmd.Flags().String(flagName(name), "", usage)
	}

	for _, name := range c.tool.InputSchema.Required {
		_ = cmd.MarkFlagRequired(flagName(name))
	}

	if c.tool.Name == "select" {
		cmd.Flags().StringVarP(&c.flagFormat, "format", "f", cli.TableFormatTable, "Format (csv|json|table|yaml|compact)")
	}

	return cmd
}

func flagName(argument string) string {
	return strings.ReplaceAll(argument, "_", "-")
}

func (c *cmdTool) run(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return cmd.Help()
	}

	arguments := map[string]any{}
	for name, value := range c.flags {
		if !cmd.Flags().Changed(flagName(name)) {
			continue
		}

		if c.tool.InputSchema.Properties[name].Type != "object" {
			arguments[name] = *value
			continue
		}

		object := map[string]any{}
		err := yaml.Unmarshal([]byte(*value), &object)
		if err != nil {
			return fmt.Errorf("Failed to parse --%s: %w", flagName(name), err)
		}

		arguments[name] = object
	}

	client, err := c.common.Client()
	if err != nil {
		return err
	}

	text, err := client.CallTool(cmd.Context(), c.tool.Name, arguments)
	if err != nil {
		return err
	}

	if c.tool.Name != "select" || c.flagFormat == cli.TableFormatJSON {
		fmt.Println(text)
		return nil
	}

	header, data, rows, err := decodeRows(text)
	if err != nil {
		return err
	}

	return cli.RenderTable(c.flagFormat, header, data, rows)
}
