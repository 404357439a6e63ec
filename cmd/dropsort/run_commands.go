package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"dropsort/internal/ipc"
	"dropsort/internal/planner"
)

func newDryRunCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "dry-run",
		Short: "Preview the next sorting pass without moving anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.DryRun()
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), resp.Plan)
				}
				renderPlan(cmd, &resp.Plan)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the plan as JSON")
	return cmd
}

func renderPlan(cmd *cobra.Command, plan *planner.Preview) {
	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)

	for _, line := range renderSectionHeader("Plan", colorize) {
		fmt.Fprintln(stdout, line)
	}
	if plan.MoveCount == 0 {
		fmt.Fprintln(stdout, renderStatusLine("Moves", statusInfo, "Nothing to sort", colorize))
	} else {
		fmt.Fprintln(stdout, renderStatusLine("Moves", statusOK, strconv.Itoa(plan.MoveCount)+" planned", colorize))
	}
	if plan.SkipCount > 0 {
		fmt.Fprintln(stdout, renderStatusLine("Skips", statusInfo, strconv.Itoa(plan.SkipCount), colorize))
	}
	if plan.PotentialConflicts > 0 {
		fmt.Fprintln(stdout, renderStatusLine("Conflicts", statusWarn, strconv.Itoa(plan.PotentialConflicts)+" destinations already occupied", colorize))
	}

	if len(plan.Grouped) > 0 {
		fmt.Fprintln(stdout)
		for _, line := range renderSectionHeader("By category", colorize) {
			fmt.Fprintln(stdout, line)
		}
		rows := make([][]string, 0, len(plan.Grouped))
		for _, group := range plan.Grouped {
			rows = append(rows, []string{group.Category, strconv.Itoa(group.Count)})
		}
		fmt.Fprintln(stdout, renderTable([]column{{title: "Category"}, {title: "Files", align: alignRight}}, rows))
	}

	if len(plan.Moves) > 0 {
		fmt.Fprintln(stdout)
		for _, line := range renderSectionHeader("Moves", colorize) {
			fmt.Fprintln(stdout, line)
		}
		rows := make([][]string, 0, len(plan.Moves))
		for _, move := range plan.Moves {
			note := ""
			if move.CollisionRenamed {
				note = "renamed"
			}
			rows = append(rows, []string{move.SourcePath, move.DestinationPath, note})
		}
		fmt.Fprintln(stdout, renderTable([]column{{title: "Source"}, {title: "Destination"}, {title: "Note"}}, rows))
	}

	if len(plan.Skips) > 0 {
		fmt.Fprintln(stdout)
		for _, line := range renderSectionHeader("Skips", colorize) {
			fmt.Fprintln(stdout, line)
		}
		rows := make([][]string, 0, len(plan.Skips))
		for _, skip := range plan.Skips {
			rows = append(rows, []string{skip.Path, skip.Reason})
		}
		fmt.Fprintln(stdout, renderTable([]column{{title: "Path"}, {title: "Reason"}}, rows))
	}
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one sorting pass now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RunNow()
				if err != nil {
					return err
				}
				result := resp.Result
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), result)
				}

				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)
				for _, line := range renderSectionHeader("Run "+result.SessionID, colorize) {
					fmt.Fprintln(stdout, line)
				}
				fmt.Fprintln(stdout, renderStatusLine("Moved", statusOK, strconv.Itoa(result.Moved), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Skipped", statusInfo, strconv.Itoa(result.Skipped), colorize))
				errorKind := statusInfo
				if result.Errors > 0 {
					errorKind = statusError
				}
				fmt.Fprintln(stdout, renderStatusLine("Errors", errorKind, strconv.Itoa(result.Errors), colorize))
				if result.CleanupTrashed > 0 || result.CleanupErrors > 0 {
					detail := strconv.Itoa(result.CleanupTrashed) + " empty folders trashed"
					if result.CleanupErrors > 0 {
						detail += ", " + strconv.Itoa(result.CleanupErrors) + " errors"
					}
					fmt.Fprintln(stdout, renderStatusLine("Cleanup", statusInfo, detail, colorize))
				}

				if len(result.ErrorDetails) > 0 {
					fmt.Fprintln(stdout)
					for _, detail := range result.ErrorDetails {
						fmt.Fprintf(stdout, "error: %s: %s\n", detail.Path, detail.Reason)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the run result as JSON")
	return cmd
}

func newUndoCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "undo",
		Short: "Undo the most recent sorting run",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.UndoLastRun()
				if err != nil {
					return err
				}
				result := resp.Result
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), result)
				}

				stdout := cmd.OutOrStdout()
				if result.SessionID == "" {
					fmt.Fprintln(stdout, "Nothing to undo")
					return nil
				}

				colorize := shouldColorize(stdout)
				for _, line := range renderSectionHeader("Undo "+result.SessionID, colorize) {
					fmt.Fprintln(stdout, line)
				}
				fmt.Fprintln(stdout, renderStatusLine("Restored", statusOK, strconv.Itoa(result.Restored), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Skipped", statusInfo, strconv.Itoa(result.Skipped), colorize))
				conflictKind := statusInfo
				if result.Conflicts > 0 {
					conflictKind = statusWarn
				}
				fmt.Fprintln(stdout, renderStatusLine("Conflicts", conflictKind, strconv.Itoa(result.Conflicts), colorize))
				errorKind := statusInfo
				if result.Errors > 0 {
					errorKind = statusError
				}
				fmt.Fprintln(stdout, renderStatusLine("Errors", errorKind, strconv.Itoa(result.Errors), colorize))

				printed := false
				for _, detail := range result.Details {
					if detail.Status == "restored" {
						continue
					}
					if !printed {
						fmt.Fprintln(stdout)
						printed = true
					}
					fmt.Fprintf(stdout, "%s: %s: %s\n", detail.Status, detail.SourcePath, detail.Message)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the undo result as JSON")
	return cmd
}
