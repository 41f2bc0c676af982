package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lex00/bookworm-infra-go/internal/lint"
)

func newLintCmd(g *globalFlags) *cobra.Command {
	var (
		outputFormat string
		dir          string
		file         string
		opts         lint.Options
	)

	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Check templates for insecure or non-disposable resources",
		Long: `Lint runs the bookworm rules over the templates:

  BKW001  IAM statements with wildcard actions
  BKW002  stateful resources that are retained on stack deletion
  BKW003  buckets without a full public access block
  BKW004  GitHub OIDC trust without audience and repository conditions
  BKW005  queues without a redrive policy
  BKW006  CORS allowing every origin (warning)

With --dir, an already synthesized assembly is linted and no configuration
is needed; --file lints a single template.

Examples:
    bookworm-infra lint
    bookworm-infra lint --dir cdk.out --format json
    bookworm-infra lint --file cdk.out/Infrastructure-App.template.json
    bookworm-infra lint --disable BKW006`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result lint.Result
			switch {
			case file != "":
				var err error
				result, err = lint.LintFile(file, opts)
				if err != nil {
					return err
				}
			case dir != "":
				var err error
				result, err = lint.LintAssembly(dir, opts)
				if err != nil {
					return err
				}
			default:
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
				result = lint.Lint(templates, opts)
			}
			return outputLintResult(cmd, result, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringVar(&dir, "dir", "", "Lint a synthesized assembly directory")
	cmd.Flags().StringVar(&file, "file", "", "Lint a single template file")
	cmd.Flags().StringSliceVar(&opts.EnabledRules, "enable", nil, "Only run these rules")
	cmd.Flags().StringSliceVar(&opts.DisabledRules, "disable", nil, "Skip these rules")

	return cmd
}

func outputLintResult(cmd *cobra.Command, result lint.Result, format string) error {
	out := cmd.OutOrStdout()
	switch format {
	case "json":
		data, err := json.MarshalIndent(result.Contract(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))

	case "text":
		if len(result.Issues) == 0 {
			fmt.Fprintln(out, "No issues found.")
			break
		}
		for _, issue := range result.Issues {
			fmt.Fprintf(out, "%s: %s\n", issue.Severity, issue)
		}
		fmt.Fprintf(out, "\n%d issue(s), %d error(s)\n", len(result.Issues), result.Errors())

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if !result.Success {
		return fmt.Errorf("lint failed with %d error(s)", result.Errors())
	}
	return nil
}
