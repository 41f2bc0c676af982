package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	bookworm "github.com/lex00/bookworm-infra-go"
	"github.com/lex00/bookworm-infra-go/internal/deploy"
	"github.com/lex00/bookworm-infra-go/internal/differ"
	"github.com/lex00/bookworm-infra-go/internal/template"
)

func newDiffCmd(g *globalFlags) *cobra.Command {
	var (
		outputFormat string
		deployed     bool
		opts         differ.Options
	)

	cmd := &cobra.Command{
		Use:   "diff [dir | old-template new-template]",
		Short: "Compare the declared stacks with a previous synth or the deployed stacks",
		Long: `Diff declares every stack and compares its resources with the templates
of a synthesized assembly directory (default: the configured output
directory), or with what CloudFormation holds when --deployed is given.
Given two template files, it compares them directly without loading
any configuration.

Examples:
    bookworm-infra diff
    bookworm-infra diff build/previous
    bookworm-infra diff old/Infrastructure-App.template.json cdk.out/Infrastructure-App.template.yaml
    bookworm-infra diff --deployed --format json`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 2 {
				if deployed {
					return errors.New("--deployed compares declared stacks; it takes no template files")
				}
				result, err := differ.CompareFiles(args[0], args[1], opts)
				if err != nil {
					return err
				}
				return outputDiffResults(cmd, nil, map[string]*differ.Result{args[1]: result}, outputFormat)
			}

			sess, err := loadSession(cmd, g)
			if err != nil {
				return err
			}
			infra, err := sess.build()
			if err != nil {
				return err
			}
			after, err := infra.Assembly.Templates()
			if err != nil {
				return err
			}

			var before map[string]*bookworm.Template
			if deployed {
				d, err := sess.newDeployer(cmd.Context())
				if err != nil {
					return err
				}
				before = make(map[string]*bookworm.Template)
				for name := range after {
					t, err := d.DeployedTemplate(cmd.Context(), name)
					if errors.Is(err, deploy.ErrNotDeployed) {
						continue
					}
					if err != nil {
						return err
					}
					before[name] = t
				}
			} else {
				dir := sess.cfg.OutDir
				if len(args) == 1 {
					dir = args[0]
				}
				_, before, err = template.LoadAssembly(dir)
				if err != nil {
					return err
				}
			}

			results, err := differ.CompareStacks(before, after, opts)
			if err != nil {
				return err
			}
			return outputDiffResults(cmd, infra.Assembly, results, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&deployed, "deployed", false, "Compare with the deployed stacks")
	cmd.Flags().BoolVar(&opts.IgnoreOrder, "ignore-order", false, "Ignore array element order")

	return cmd
}

// stackDiff is the JSON form of one stack's differences.
type stackDiff struct {
	Stack   string                `json:"stack"`
	Diff    bookworm.TemplateDiff `json:"diff"`
	Summary bookworm.DiffSummary  `json:"summary"`
}

func outputDiffResults(cmd *cobra.Command, a *template.Assembly, results map[string]*differ.Result, format string) error {
	out := cmd.OutOrStdout()

	var ordered []stackDiff
	seen := make(map[string]bool)
	if a != nil {
		for _, s := range a.Stacks() {
			if r, ok := results[s.Name()]; ok {
				ordered = append(ordered, stackDiff{Stack: s.Name(), Diff: r.Diff, Summary: r.Summary})
				seen[s.Name()] = true
			}
		}
	}
	// stacks that are no longer declared
	var rest []string
	for name := range results {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		r := results[name]
		ordered = append(ordered, stackDiff{Stack: name, Diff: r.Diff, Summary: r.Summary})
	}

	switch format {
	case "json":
		data, err := json.MarshalIndent(ordered, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))

	case "text":
		changed := 0
		for _, d := range ordered {
			if d.Summary.Total == 0 {
				continue
			}
			changed++
			fmt.Fprintf(out, "Stack %s\n", d.Stack)
			for _, e := range d.Diff.Added {
				fmt.Fprintf(out, "  [+] %s %s\n", e.Type, e.Resource)
			}
			for _, e := range d.Diff.Removed {
				fmt.Fprintf(out, "  [-] %s %s\n", e.Type, e.Resource)
			}
			for _, e := range d.Diff.Modified {
				fmt.Fprintf(out, "  [~] %s %s\n", e.Type, e.Resource)
				for _, c := range e.Changes {
					fmt.Fprintf(out, "      %s\n", c)
				}
			}
			fmt.Fprintf(out, "  %d added, %d removed, %d modified\n\n",
				d.Summary.Added, d.Summary.Removed, d.Summary.Modified)
		}
		if changed == 0 {
			fmt.Fprintln(out, "No differences.")
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}
	return nil
}
