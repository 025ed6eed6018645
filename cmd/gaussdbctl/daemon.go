package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

type cmdWaitready struct {
	common *CmdControl

	flagTimeout int
}

func (c *cmdWaitready) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "waitready",
		Short: "Wait for the daemon to be ready to process requests",
		RunE:  c.run,
	}

	cmd.Flags().IntVarP(&c.flagTimeout, "timeout", "t", 0, "Number of seconds to wait before giving up"+"``")

	return cmd
}

func (c *cmdWaitready) run(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return cmd.Help()
	}

	client, err := c.common.Client()
	if err != nil {
		return err
	}

	ctx, cancel := cmd.Context(), func() {}
	if c.flagTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, time.Duration(c.flagTimeout)*time.Second)
	}
	defer cancel()

	return client.WaitReady(ctx)
}

type cmdShutdown struct {
	common *CmdControl
}

func (c *cmdShutdown) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shutdown",
		Short: "Shut down the daemon",
		RunE:  c.run,
	}

	return cmd
}

func (c *cmdShutdown) run(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return cmd.Help()
	}

	client, err := c.common.Client()
	if err != nil {
		return err
	}

	return client.ShutdownDaemon(cmd.Context())
}
