package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	bookworm "github.com/lex00/bookworm-infra-go"
)

func newListCmd(g *globalFlags) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List declared resources",
		Long: `List declares every stack and prints its resources.

Examples:
    bookworm-infra list
    bookworm-infra list --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(cmd, g)
			if err != nil {
				return err
			}
			return runList(cmd, sess, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")

	return cmd
}

func runList(cmd *cobra.Command, sess *session, format string) error {
	infra, err := sess.build()
	if err != nil {
		return err
	}
	templates, err := infra.Assembly.Templates()
	if err != nil {
		return err
	}

	listResult := bookworm.ListResult{Resources: []bookworm.ListResource{}}
	for _, stack := range infra.Assembly.Stacks() {
		t := templates[stack.Name()]
		names := make([]string, 0, len(t.Resources))
		for name := range t.Resources {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			listResult.Resources = append(listResult.Resources, bookworm.ListResource{
				Stack: stack.Name(),
				Name:  name,
				Type:  t.Resources[name].Type,
			})
		}
	}

	return outputListResult(cmd, listResult, format)
}

func outputListResult(cmd *cobra.Command, result bookworm.ListResult, format string) error {
	out := cmd.OutOrStdout()
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))

	case "text":
		if len(result.Resources) == 0 {
			fmt.Fprintln(out, "No resources found.")
			return nil
		}

		fmt.Fprintf(out, "Declared resources (%d):\n", len(result.Resources))
		stack := ""
		for _, res := range result.Resources {
			if res.Stack != stack {
				stack = res.Stack
				fmt.Fprintf(out, "\n%s:\n", stack)
			}
			fmt.Fprintf(out, "  %s: %s\n", res.Name, res.Type)
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	return nil
}
