package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lex00/bookworm-infra-go/internal/lint"
	"github.com/lex00/bookworm-infra-go/internal/template"
	"github.com/lex00/bookworm-infra-go/internal/validation"
)

func newValidateCmd(g *globalFlags) *cobra.Command {
	var (
		outputFormat string
		dir          string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate templates with cfn-lint, the schema check and the bookworm rules",
		Long: `Validate synthesizes the assembly into a temporary directory and checks
every template with cfn-lint, the offline resource schema and the
bookworm lint rules.

Examples:
    bookworm-infra validate
    bookworm-infra validate --dir cdk.out --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				sess, err := loadSession(cmd, g)
				if err != nil {
					return err
				}
				infra, err := sess.build()
				if err != nil {
					return err
				}
				tmp, err := os.MkdirTemp("", "bookworm-validate-")
				if err != nil {
					return err
				}
				defer func() {
					_ = os.RemoveAll(tmp)
				}()
				if _, err := infra.Assembly.Synth(tmp, template.FormatJSON); err != nil {
					return err
				}
				dir = tmp
			}

			result, err := validation.ValidateAssembly(dir, lint.Options{})
			if err != nil {
				return err
			}
			return outputValidateResult(cmd, result, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringVar(&dir, "dir", "", "Validate a synthesized assembly directory")

	return cmd
}

func outputValidateResult(cmd *cobra.Command, result *validation.ValidationResult, format string) error {
	out := cmd.OutOrStdout()
	contract := result.Contract()

	switch format {
	case "json":
		data, err := json.MarshalIndent(contract, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))

	case "text":
		for _, warnMsg := range contract.Warnings {
			fmt.Fprintf(out, "  WARNING: %s\n", warnMsg)
		}
		if contract.Success {
			fmt.Fprintf(out, "Validation passed: %d resources in %d stacks OK\n", contract.Resources, len(result.Stacks))
			return nil
		}
		fmt.Fprintln(out, "Validation FAILED:")
		for _, errMsg := range contract.Errors {
			fmt.Fprintf(out, "  ERROR: %s\n", errMsg)
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if !contract.Success {
		return fmt.Errorf("validation failed with %d error(s)", len(contract.Errors))
	}
	return nil
}
