package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"dropsort/internal/ipc"
	"dropsort/internal/rules"
)

func newRulesCommand(ctx *commandContext) *cobra.Command {
	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and change the sorting rules",
	}
	rulesCmd.AddCommand(newRulesShowCommand(ctx))
	rulesCmd.AddCommand(newRulesSetCommand(ctx))
	rulesCmd.AddCommand(newRulesValidateCommand(ctx))
	rulesCmd.AddCommand(newRulesSetRootCommand(ctx))
	return rulesCmd
}

func newRulesShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the active rule document",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.GetRules()
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), resp.Rules)
				}

				stdout := cmd.OutOrStdout()
				if resp.LoadIssue != "" {
					fmt.Fprintf(stdout, "warning: %s\n\n", resp.LoadIssue)
				}
				fmt.Fprintf(stdout, "Sort root: %s\n", resp.Rules.Global.SortRoot)
				fmt.Fprintf(stdout, "Minimum file age: %ds\n", resp.Rules.Global.MinFileAgeSeconds)
				fmt.Fprintf(stdout, "Case-insensitive extensions: %s\n\n", yesNo(resp.Rules.Global.CaseInsensitiveExt))

				rows := make([][]string, 0, len(resp.Rules.Categories)+1)
				for _, category := range resp.Rules.Categories {
					rows = append(rows, []string{
						category.Name,
						category.TargetSubfolder,
						strconv.Itoa(len(category.Extensions)),
					})
				}
				rows = append(rows, []string{"Misc", resp.Rules.Misc.TargetSubfolder, "fallback"})
				fmt.Fprintln(stdout, renderTable([]column{
					{title: "Category"},
					{title: "Folder"},
					{title: "Extensions", align: alignRight},
				}, rows))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the rule document as JSON")
	return cmd
}

func newRulesSetCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <rules.json>",
		Short: "Replace the rule document from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readRulesFile(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SetRules(doc)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				printValidation(stdout, resp.Validation)
				if !resp.Validation.Valid {
					return fmt.Errorf("rules rejected")
				}
				fmt.Fprintln(stdout, "Rules installed")
				return nil
			})
		},
	}
	return cmd
}

func newRulesValidateCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <rules.json>",
		Short: "Validate a rule document without installing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readRulesFile(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ValidateRules(doc)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				printValidation(stdout, resp.Validation)
				if !resp.Validation.Valid {
					return fmt.Errorf("rules invalid")
				}
				fmt.Fprintln(stdout, "Rules valid")
				return nil
			})
		},
	}
	return cmd
}

func newRulesSetRootCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-root <path>",
		Short: "Point the sorter at a new sort root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := strings.TrimSpace(args[0])
			if path == "" {
				return fmt.Errorf("sort root path is required")
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolve sort root: %w", err)
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SetSortRoot(abs)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Sort root set to %s\n", resp.SortRoot)
				return nil
			})
		},
	}
	return cmd
}

func readRulesFile(path string) (rules.Rules, error) {
	var doc rules.Rules
	data, err := os.ReadFile(path)
	if err != nil {
		return doc, fmt.Errorf("read rules file: %w", err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("parse rules file: %w", err)
	}
	return doc, nil
}

func printValidation(stdout io.Writer, validation rules.ValidationResult) {
	for _, issue := range validation.Errors {
		fmt.Fprintf(stdout, "error: %s\n", issue)
	}
	for _, warning := range validation.Warnings {
		fmt.Fprintf(stdout, "warning: %s\n", warning)
	}
}
