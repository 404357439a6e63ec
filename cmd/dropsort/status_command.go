package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"dropsort/internal/daemonctl"
	"dropsort/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and watcher status",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()

			running, _, err := daemonctl.ProcessInfo(ctx.socketPath())
			if err != nil {
				return err
			}
			if !running {
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), ipc.StatusResponse{})
				}
				colorize := shouldColorize(stdout)
				for _, line := range renderSectionHeader("Daemon", colorize) {
					fmt.Fprintln(stdout, line)
				}
				fmt.Fprintln(stdout, renderStatusLine("Daemon", statusWarn, "Not running (run `dropsort start`)", colorize))
				return nil
			}

			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), status)
				}
				renderStatus(cmd, status)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit status as JSON")
	return cmd
}

func renderStatus(cmd *cobra.Command, status *ipc.StatusResponse) {
	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)

	for _, line := range renderSectionHeader("Daemon", colorize) {
		fmt.Fprintln(stdout, line)
	}
	daemonKind := statusWarn
	daemonDetail := "Stopped"
	if status.Running {
		daemonKind = statusOK
		daemonDetail = "Running (pid " + strconv.Itoa(status.PID) + ")"
	}
	fmt.Fprintln(stdout, renderStatusLine("Daemon", daemonKind, daemonDetail, colorize))

	watcherKind := statusInfo
	watcherDetail := "Stopped"
	if status.WatcherRunning {
		watcherKind = statusOK
		watcherDetail = "Watching " + status.SortRoot
	}
	fmt.Fprintln(stdout, renderStatusLine("Watcher", watcherKind, watcherDetail, colorize))

	if status.RulesLoadIssue != "" {
		fmt.Fprintln(stdout, renderStatusLine("Rules", statusWarn, status.RulesLoadIssue, colorize))
	} else {
		fmt.Fprintln(stdout, renderStatusLine("Rules", statusOK, "Loaded", colorize))
	}

	fmt.Fprintln(stdout)
	for _, line := range renderSectionHeader("Paths", colorize) {
		fmt.Fprintln(stdout, line)
	}
	rows := [][]string{
		{"Sort root", status.SortRoot},
		{"Rules", status.RulesPath},
		{"Journal", status.JournalPath},
		{"Lock", status.LockPath},
	}
	fmt.Fprintln(stdout, renderTable([]column{{title: "Path"}, {title: "Location"}}, rows))
}
