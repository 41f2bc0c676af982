package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lex00/bookworm-infra-go/internal/optimizer"
)

func newOptimizeCmd(g *globalFlags) *cobra.Command {
	var (
		outputFormat string
		category     string
	)

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Suggest security, cost, performance and reliability improvements",
		Long: `Optimize analyzes the declared resources and suggests improvements.
Suggestions are advisory and never fail the command.

Examples:
    bookworm-infra optimize
    bookworm-infra optimize --category cost --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(cmd, g)
			if err != nil {
				return err
			}
			infra, err := sess.build()
			if err != nil {
				return err
			}
			templates, err := infra.Assembly.Templates()
			if err != nil {
				return err
			}
			result, err := optimizer.Optimize(templates, optimizer.Options{Category: category})
			if err != nil {
				return err
			}
			return outputOptimizeResult(cmd, result, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringVarP(&category, "category", "c", "all", "Category: all, security, cost, performance or reliability")

	return cmd
}

func outputOptimizeResult(cmd *cobra.Command, result *optimizer.Result, format string) error {
	out := cmd.OutOrStdout()
	switch format {
	case "json":
		data, err := json.MarshalIndent(result.Contract(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))

	case "text":
		if len(result.Suggestions) == 0 {
			fmt.Fprintln(out, "No suggestions.")
			return nil
		}
		for _, s := range result.Suggestions {
			fmt.Fprintf(out, "[%s/%s] %s/%s: %s\n", s.Category, s.Severity, s.Stack, s.Resource, s.Title)
			fmt.Fprintf(out, "    %s\n", s.Suggestion)
		}
		fmt.Fprintf(out, "\n%d suggestion(s): %d security, %d cost, %d performance, %d reliability\n",
			result.Summary.Total, result.Summary.Security, result.Summary.Cost,
			result.Summary.Performance, result.Summary.Reliability)

	default:
		return fmt.Errorf("unknown format: %s", format)
	}
	return nil
}
