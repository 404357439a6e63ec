package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dropsort/internal/ipc"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Control the sort root watcher",
	}

	cmd.AddCommand(newWatchStartCommand(ctx))
	cmd.AddCommand(newWatchStopCommand(ctx))
	cmd.AddCommand(newWatchStatusCommand(ctx))
	return cmd
}

func newWatchStartCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start watching the sort root",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.StartWatcher()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Watching %s\n", status.SortRoot)
				return nil
			})
		},
	}
}

func newWatchStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop watching the sort root",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.StopWatcher(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Watcher stopped")
				return nil
			})
		},
	}
}

func newWatchStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show watcher status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.WatcherStatus()
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), status)
				}

				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)
				if status.Running {
					fmt.Fprintln(stdout, renderStatusLine("Watcher", statusOK, "Watching "+status.SortRoot, colorize))
				} else {
					fmt.Fprintln(stdout, renderStatusLine("Watcher", statusInfo, "Stopped", colorize))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit watcher status as JSON")
	return cmd
}
