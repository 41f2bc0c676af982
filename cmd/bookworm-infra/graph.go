package main

import (
	"github.com/spf13/cobra"

	"github.com/lex00/bookworm-infra-go/internal/graph"
)

func newGraphCmd(g *globalFlags) *cobra.Command {
	var (
		outputFormat string
		outputFile   string
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Draw the resource dependency graph",
		Long: `Graph draws every stack as a cluster of its resources with edges to the
resources they depend on. GetAtt edges are blue; dashed edges cross stacks
through exported outputs.

Examples:
    bookworm-infra graph | dot -Tpng -o bookworm.png
    bookworm-infra graph --format mermaid -o bookworm.mmd`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := graph.ParseFormat(outputFormat)
			if err != nil {
				return err
			}
			sess, err := loadSession(cmd, g)
			if err != nil {
				return err
			}
			infra, err := sess.build()
			if err != nil {
				return err
			}
			stacks, err := graph.FromAssembly(infra.Assembly)
			if err != nil {
				return err
			}

			gen := &graph.Generator{Format: format}
			out, err := gen.GenerateString(stacks)
			if err != nil {
				return err
			}
			return writeOutput(cmd, outputFile, []byte(out))
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "dot", "Output format: dot or mermaid")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}
