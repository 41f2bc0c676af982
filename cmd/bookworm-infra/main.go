// Command bookworm-infra synthesizes and deploys the Bookworm
// infrastructure: the shared, IDE and application CloudFormation stacks.
//
// Usage:
//
//	bookworm-infra synth                Write templates to cdk.out/
//	bookworm-infra lint                 Check templates for issues
//	bookworm-infra diff --deployed      Compare with the deployed stacks
//	bookworm-infra deploy               Create or update every stack
//	bookworm-infra version              Show version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// globalFlags are the persistent flags of the root command.
type globalFlags struct {
	configFile string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "bookworm-infra",
		Short: "Synthesize and deploy the Bookworm infrastructure",
		Long: `bookworm-infra declares the Bookworm infrastructure as three
CloudFormation stacks and deploys them:

    Infrastructure-Shared   image repository, CodeGuru bucket, GitHub OIDC roles
    Infrastructure-IDE      Cloud9 development environment
    Infrastructure-App      cover uploads API, queue and thumbnail service

Required environment:

    AWS_ACCOUNT_ID or CDK_DEFAULT_ACCOUNT
    AWS_REGION or CDK_DEFAULT_REGION
    AWS_USERNAME
    GITHUB_ORG_NAME
    GITHUB_REPO_NAME`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&g.configFile, "config", "", "Config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&g.logFormat, "log-format", "text", "Log format: text or json")

	rootCmd.AddCommand(
		newSynthCmd(g),
		newListCmd(g),
		newGraphCmd(g),
		newLintCmd(g),
		newValidateCmd(g),
		newOptimizeCmd(g),
		newDiffCmd(g),
		newDeployCmd(g),
		newDestroyCmd(g),
		newVersionCmd(),
	)

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bookworm-infra %s\n", getVersion())
		},
	}
}
