package main

import (
	"github.com/Helveg/sendgrid-template-manager/internal/apply"
	"github.com/Helveg/sendgrid-template-manager/internal/logging"
	"github.com/Helveg/sendgrid-template-manager/internal/report"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	applyTag         string
	applyActivate    bool
	applyPreheader   bool
	applyConcurrency int
)

// applyCmd merges a design into templates
var applyCmd = &cobra.Command{
	Use:   "apply <design> [templates...]",
	Short: "Apply a design to one or more templates",
	Long: `Merges the modules of each template's __content__ version into a design
and writes the result as the tagged version of the template.

Design and templates may be given by id or by name. Without templates, every
template that has a __content__ version is updated.

Examples:
  sgtm apply "Base layout"
  sgtm apply "Base layout" welcome reset-password --tag v2 --activate`,
	Args: cobra.MinimumNArgs(1),
	RunE: runApply,
}

func init() {
	applyCmd.Flags().StringVarP(&applyTag, "tag", "t", "", "Version name to create or update (default from config: latest)")
	applyCmd.Flags().BoolVar(&applyActivate, "activate", false, "Activate the written version")
	applyCmd.Flags().BoolVar(&applyPreheader, "preheader", false, "Copy each template's preheader into the design")
	applyCmd.Flags().IntVar(&applyConcurrency, "concurrency", -1, "Templates applied at once, 0 for no limit (default from config)")
}

func applyOptions() apply.Options {
	opts := apply.Options{
		Tag:          cfg.Apply.Tag,
		Activate:     applyActivate,
		Kind:         cfg.Apply.PlaceholderKind,
		Placeholders: cfg.Apply.Placeholders,
		Preheader:    applyPreheader,
		Concurrency:  cfg.Apply.Concurrency,
	}
	if applyTag != "" {
		opts.Tag = applyTag
	}
	if applyConcurrency >= 0 {
		opts.Concurrency = applyConcurrency
	}
	return opts
}

func runApply(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	opts := applyOptions()
	logger.Info("Applying design",
		zap.String("design", args[0]),
		zap.Strings("templates", args[1:]),
		zap.String("tag", opts.Tag))

	engine := apply.New(client, logging.Get(logging.CategoryApply), opts)
	plan, err := engine.Prepare(ctx, args[0], args[1:])
	if err != nil {
		return err
	}
	result := engine.Run(ctx, plan)
	report.NewPrinter(cmd.OutOrStdout(), verbose).ApplyResult(result)

	// Per-template failures are reported above and do not fail the command.
	if err := result.Err(); err != nil {
		logger.Debug("Some templates failed", zap.Int("failed", len(result.Failed())))
	}
	return nil
}
