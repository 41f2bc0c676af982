package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	bookworm "github.com/lex00/bookworm-infra-go"
	"github.com/lex00/bookworm-infra-go/internal/config"
	"github.com/lex00/bookworm-infra-go/internal/template"
)

type synthOptions struct {
	watch    bool
	debounce time.Duration
	jsonOut  bool
}

func newSynthCmd(g *globalFlags) *cobra.Command {
	var opts synthOptions

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Write the CloudFormation templates",
		Long: `Synth declares the Shared, IDE and App stacks and writes one template per
stack plus manifest.json to the output directory.

Examples:
    bookworm-infra synth
    bookworm-infra synth --out build --format yaml
    bookworm-infra synth --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			synth := func() error {
				sess, err := loadSession(cmd, g,
					flagBinding{"out", config.KeyOutDir},
					flagBinding{"format", config.KeyFormat},
				)
				if err != nil {
					return err
				}
				return runSynth(cmd, sess, opts.jsonOut)
			}

			if err := synth(); err != nil {
				if !opts.watch || config.IsMissingEnv(err) {
					return err
				}
				fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
			}
			if !opts.watch {
				return nil
			}

			paths, err := watchedPaths(cmd, g)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintln(cmd.OutOrStdout(), "Watching for changes... (Ctrl+C to stop)")
			return watch(ctx, paths, opts.debounce, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "\n[%s] Change detected, synthesizing...\n", time.Now().Format("15:04:05"))
				if err := synth(); err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
				}
			})
		},
	}

	cmd.Flags().StringP("out", "o", "cdk.out", "Output directory")
	cmd.Flags().StringP("format", "f", "json", "Template format: json or yaml")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Re-synthesize when the config file or assets change")
	cmd.Flags().DurationVar(&opts.debounce, "debounce", 500*time.Millisecond, "Debounce duration for rapid changes")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "Print the result as JSON")

	return cmd
}

func runSynth(cmd *cobra.Command, sess *session, jsonOut bool) error {
	format, err := template.ParseFormat(sess.cfg.Format)
	if err != nil {
		return err
	}
	infra, err := sess.build()
	if err != nil {
		return err
	}
	manifest, err := infra.Assembly.Synth(sess.cfg.OutDir, format)
	if err != nil {
		return err
	}
	sess.log.Info(cmd.Context(), "synthesized", "dir", sess.cfg.OutDir, "stacks", len(manifest.Stacks))

	if jsonOut {
		templates, err := infra.Assembly.Templates()
		if err != nil {
			return err
		}
		result := bookworm.BuildResult{Success: true, Stacks: map[string]bookworm.Template{}}
		for name, t := range templates {
			result.Stacks[name] = *t
		}
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	for _, s := range manifest.Stacks {
		fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", s.Name, filepath.Join(sess.cfg.OutDir, s.Template))
	}
	return nil
}

// watchedPaths returns the config file and the asset bundles.
func watchedPaths(cmd *cobra.Command, g *globalFlags) ([]string, error) {
	v, err := config.New(g.configFile)
	if err != nil {
		return nil, err
	}
	var paths []string
	if g.configFile != "" {
		paths = append(paths, g.configFile)
	}
	paths = append(paths, v.GetString(config.KeyAssetsUploadCover))

	for i, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		paths[i] = abs
	}
	return paths, nil
}

// watch calls rebuild after writes to any of paths have settled for the
// debounce duration. It returns when ctx is done.
func watch(ctx context.Context, paths []string, debounce time.Duration, rebuild func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	// Directories are watched so that files replaced by rename are seen.
	watched := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, p := range paths {
		watched[p] = true
		dir := filepath.Dir(p)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		dirs[dir] = true
	}

	var debounceTimer *time.Timer
	rebuildChan := make(chan struct{}, 1)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !watched[filepath.Clean(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounce, func() {
				select {
				case rebuildChan <- struct{}{}:
				default:
				}
			})

		case <-rebuildChan:
			rebuild()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "Watch error: %v\n", err)

		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return nil
		}
	}
}
