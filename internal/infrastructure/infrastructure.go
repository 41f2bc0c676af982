// Package infrastructure wires configuration into the bookworm stacks.
package infrastructure

import (
	"context"
	"errors"
	"fmt"

	"github.com/lex00/bookworm-infra-go/internal/assets"
	"github.com/lex00/bookworm-infra-go/internal/config"
	"github.com/lex00/bookworm-infra-go/internal/logging"
	"github.com/lex00/bookworm-infra-go/internal/stacks"
	"github.com/lex00/bookworm-infra-go/internal/template"
)

// Options tunes a synthesis run.
type Options struct {
	Logger logging.Logger

	// SkipAssets declares the stacks without reading local assets. The
	// resulting templates reference a placeholder code key and are only
	// good for stack names and order, as destroy needs.
	SkipAssets bool
}

// UnstagedKey is the code key used when assets are skipped.
const UnstagedKey = assets.KeyPrefix + "unstaged"

// Infrastructure is the result of a synthesis run: the assembly and the
// stacks and assets behind it.
type Infrastructure struct {
	Assembly *template.Assembly

	Shared *stacks.Shared
	IDE    *stacks.IDE
	App    *stacks.App

	// UploadCover is the staged code package of the upload-cover Lambda.
	UploadCover assets.Asset
}

// Environment returns the deployment target named by cfg.
func Environment(cfg *config.Config) template.Environment {
	return template.Environment{Account: cfg.Account, Region: cfg.Region}
}

// Build constructs the Shared, IDE and App stacks, in that order.
func Build(cfg *config.Config, opts Options) (*Infrastructure, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	ctx := context.Background()
	env := Environment(cfg)

	instanceType, err := stacks.ParseInstanceType(cfg.IDE.InstanceClass, cfg.IDE.InstanceSize)
	if err != nil {
		return nil, fmt.Errorf("ide: %w", err)
	}
	uploadCover := assets.Asset{Key: UnstagedKey}
	if !opts.SkipAssets {
		uploadCover, err = assets.Stage(cfg.Assets.UploadCover)
		if err != nil {
			return nil, fmt.Errorf("upload-cover asset: %w", err)
		}
		log.Debug(ctx, "staged asset", "path", uploadCover.Path, "key", uploadCover.Key, "size", uploadCover.Size)
	}

	shared, err := stacks.NewShared(stacks.SharedProps{
		Env:        env,
		GitHubOrg:  cfg.GitHub.Org,
		GitHubRepo: cfg.GitHub.Repo,
	})
	if err != nil {
		return nil, err
	}
	log.Debug(ctx, "declared stack", "stack", shared.Stack.Name(), "resources", len(shared.Stack.Resources()))

	ide, err := stacks.NewIDE(stacks.IDEProps{
		Env:          env,
		Username:     cfg.Username,
		InstanceType: instanceType,
	})
	if err != nil {
		return nil, err
	}
	log.Debug(ctx, "declared stack", "stack", ide.Stack.Name(), "resources", len(ide.Stack.Resources()))

	app, err := stacks.NewApp(stacks.AppProps{
		Env:            env,
		Repository:     &shared.Repository,
		AssetsBucket:   shared.AssetsBucket,
		UploadCoverKey: uploadCover.Key,
	})
	if err != nil {
		return nil, err
	}
	log.Debug(ctx, "declared stack", "stack", app.Stack.Name(), "resources", len(app.Stack.Resources()))

	return &Infrastructure{
		Assembly:    template.NewAssembly(shared.Stack, ide.Stack, app.Stack),
		Shared:      shared,
		IDE:         ide,
		App:         app,
		UploadCover: uploadCover,
	}, nil
}

// Synthesize builds the stacks and returns their assembly.
func Synthesize(cfg *config.Config, opts Options) (*template.Assembly, error) {
	infra, err := Build(cfg, opts)
	if err != nil {
		return nil, err
	}
	return infra.Assembly, nil
}
