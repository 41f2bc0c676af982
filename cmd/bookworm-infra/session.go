package main

import (
	"context"
	"fmt"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lex00/bookworm-infra-go/internal/assets"
	"github.com/lex00/bookworm-infra-go/internal/config"
	"github.com/lex00/bookworm-infra-go/internal/deploy"
	"github.com/lex00/bookworm-infra-go/internal/infrastructure"
	"github.com/lex00/bookworm-infra-go/internal/logging"
)

// session is the resolved configuration and logger of one command run.
type session struct {
	cfg *config.Config
	log logging.Logger
}

// flagBinding maps a command-line flag to a config key.
type flagBinding struct {
	flag string
	key  string
}

var globalBindings = []flagBinding{
	{"log-level", config.KeyLogLevel},
	{"log-format", config.KeyLogFormat},
}

// loadSession reads the configuration. Flags that were set on the command
// line override the config file and BOOKWORM_* variables.
func loadSession(cmd *cobra.Command, g *globalFlags, bindings ...flagBinding) (*session, error) {
	v, err := config.New(g.configFile)
	if err != nil {
		return nil, err
	}
	for _, b := range append(append([]flagBinding{}, globalBindings...), bindings...) {
		if err := bindFlag(v, cmd.Flags().Lookup(b.flag), b.key); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}

	log, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, log: log}, nil
}

func bindFlag(v *viper.Viper, f *pflag.Flag, key string) error {
	if f == nil || !f.Changed {
		return nil
	}
	if err := v.BindPFlag(key, f); err != nil {
		return fmt.Errorf("binding --%s: %w", f.Name, err)
	}
	return nil
}

// build declares every stack from the session's configuration.
func (s *session) build() (*infrastructure.Infrastructure, error) {
	return infrastructure.Build(s.cfg, infrastructure.Options{Logger: s.log})
}

// buildForTeardown declares the stacks without the local Lambda bundle.
func (s *session) buildForTeardown() (*infrastructure.Infrastructure, error) {
	return infrastructure.Build(s.cfg, infrastructure.Options{Logger: s.log, SkipAssets: true})
}

// newDeployer creates a Deployer against the configured account and region.
func (s *session) newDeployer(ctx context.Context) (*deploy.Deployer, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(s.cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS configuration: %w", err)
	}
	uploader := assets.NewUploader(s3.NewFromConfig(awsCfg), s.log)
	return deploy.New(cloudformation.NewFromConfig(awsCfg), uploader, s.log), nil
}

// writeOutput writes data to path, or to the command's stdout when path
// is empty.
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
