package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gaussdb/gaussdb-mcp/internal/config"
)

type cmdConfig struct {
	global *cmdGlobal
}

func (c *cmdConfig) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the daemon configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var cmdInit = cmdConfigInit{global: c.global}
	cmd.AddCommand(cmdInit.command())

	var cmdShow = cmdConfigShow{global: c.global}
	cmd.AddCommand(cmdShow.command())

	return cmd
}

type cmdConfigInit struct {
	global *cmdGlobal

	flagForce bool
}

func (c *cmdConfigInit) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init <path>",
		Short: "Write a configuration file holding the defaults",
		RunE:  c.run,
	}

	cmd.Flags().BoolVarP(&c.flagForce, "force", "f", false, "Overwrite an existing file")

	return cmd
}

func (c *cmdConfigInit) run(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return cmd.Help()
	}

	_, err := os.Stat(args[0])
	if err == nil && !c.flagForce {
		return fmt.Errorf("Config file %q already exists", args[0])
	}

	return config.Default().Write(args[0])
}

type cmdConfigShow struct {
	global *cmdGlobal
}

func (c *cmdConfigShow) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration, with secrets hidden",
		RunE:  c.run,
	}

	return cmd
}

func (c *cmdConfigShow) run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(c.global.flagConfig)
	if err != nil {
		return err
	}

	if cfg.Password != "" {
		cfg.Password = "********"
	}

	if cfg.APIToken != "" {
		cfg.APIToken = "********"
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	fmt.Print(string(out))

	return nil
}
