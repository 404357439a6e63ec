package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"dropsort/internal/events"
	"dropsort/internal/ipc"
)

func newEventsCommand(ctx *commandContext) *cobra.Command {
	var (
		follow bool
		since  uint64
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show daemon events",
		Long:  "Show recent daemon events. With --follow the command keeps polling until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				stdout := cmd.OutOrStdout()
				cursor := since
				for {
					resp, err := client.Events(ipc.EventsRequest{
						Since:  cursor,
						Limit:  limit,
						Follow: follow,
					})
					if err != nil {
						return err
					}
					for _, event := range resp.Events {
						if asJSON {
							line, err := json.Marshal(event)
							if err != nil {
								return err
							}
							fmt.Fprintln(stdout, string(line))
							continue
						}
						fmt.Fprintln(stdout, formatEvent(event))
					}
					cursor = resp.NextSince

					if !follow {
						return nil
					}
					select {
					case <-cmd.Context().Done():
						return nil
					default:
					}
				}
			})
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep streaming new events")
	cmd.Flags().Uint64Var(&since, "since", 0, "Start after this event sequence number")
	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum events per fetch")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit one JSON object per event")
	return cmd
}

func formatEvent(event events.Event) string {
	stamp := event.Timestamp.Local().Format("15:04:05")
	switch event.Type {
	case events.TypeRunProgress:
		return fmt.Sprintf("%s %-14s session=%s moved=%d skipped=%d errors=%d %s",
			stamp, event.Type, event.SessionID, event.Moved, event.Skipped, event.Errors, event.CurrentPath)
	case events.TypeRunComplete:
		return fmt.Sprintf("%s %-14s session=%s moved=%d skipped=%d errors=%d",
			stamp, event.Type, event.SessionID, event.Moved, event.Skipped, event.Errors)
	case events.TypeRunLog:
		return fmt.Sprintf("%s %-14s %s", stamp, event.Type, event.Message)
	case events.TypeWatcherStatus:
		state := "stopped"
		if event.Running {
			state = "watching " + event.SortRoot
		}
		return fmt.Sprintf("%s %-14s %s", stamp, event.Type, state)
	default:
		return fmt.Sprintf("%s %-14s", stamp, event.Type)
	}
}
