package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lex00/bookworm-infra-go/internal/deploy"
	"github.com/lex00/bookworm-infra-go/internal/stacks"
	"github.com/lex00/bookworm-infra-go/internal/template"
)

func newDeployCmd(g *globalFlags) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Create or update every stack",
		Long: `Deploy synthesizes the assembly to the output directory and hands the
stacks to CloudFormation in dependency order. The upload-cover bundle is
uploaded to the assets bucket before the App stack is deployed.

Examples:
    bookworm-infra deploy
    bookworm-infra deploy --timeout 45m`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(cmd, g)
			if err != nil {
				return err
			}
			format, err := template.ParseFormat(sess.cfg.Format)
			if err != nil {
				return err
			}
			infra, err := sess.build()
			if err != nil {
				return err
			}
			if _, err := infra.Assembly.Synth(sess.cfg.OutDir, format); err != nil {
				return err
			}

			d, err := sess.newDeployer(cmd.Context())
			if err != nil {
				return err
			}
			d.Timeout = timeout

			result, err := d.Deploy(cmd.Context(), infra.Assembly, []deploy.Upload{{
				Asset:  infra.UploadCover,
				Bucket: infra.Shared.AssetsBucketName,
				Stack:  stacks.AppStackName,
			}})
			printStackResults(cmd, result)
			return err
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", deploy.DefaultTimeout, "Maximum wait per stack")

	return cmd
}

func newDestroyCmd(g *globalFlags) *cobra.Command {
	var (
		timeout time.Duration
		yes     bool
	)

	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Delete every stack",
		Long: `Destroy deletes the stacks, dependents first. Buckets, queues, log groups
and the image repository are deleted with their stacks; the assets bucket
is emptied before the Shared stack is deleted. The upload-cover bundle
does not need to exist locally.

Examples:
    bookworm-infra destroy --yes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(cmd, g)
			if err != nil {
				return err
			}
			if !yes {
				return errors.New("refusing to destroy without --yes")
			}
			infra, err := sess.buildForTeardown()
			if err != nil {
				return err
			}
			d, err := sess.newDeployer(cmd.Context())
			if err != nil {
				return err
			}
			d.Timeout = timeout

			result, err := d.Destroy(cmd.Context(), infra.Assembly, []deploy.Purge{{
				Bucket: infra.Shared.AssetsBucketName,
				Stack:  stacks.SharedStackName,
			}})
			printStackResults(cmd, result)
			return err
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", deploy.DefaultTimeout, "Maximum wait per stack")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm deletion")

	return cmd
}

func printStackResults(cmd *cobra.Command, result *deploy.Result) {
	if result == nil {
		return
	}
	out := cmd.OutOrStdout()
	for _, s := range result.Stacks {
		fmt.Fprintf(out, "%s: %s\n", s.Name, s.Status)
		for _, key := range s.SortedOutputs() {
			fmt.Fprintf(out, "  %s = %s\n", key, s.Outputs[key])
		}
	}
}
