package main

import (
	"github.com/Helveg/sendgrid-template-manager/internal/report"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// listCmd summarizes designs and content templates
var listCmd = &cobra.Command{
	Use:       "list [designs|templates]",
	Short:     "List designs and content templates",
	ValidArgs: []string{"designs", "templates"},
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	RunE:      runList,
}

func runList(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	kind := ""
	if len(args) > 0 {
		kind = args[0]
	}
	ctx := commandContext(cmd)

	// A failing section is rendered as ERROR and never fails its sibling.
	var templatesOut, designsOut string
	eg, egCtx := errgroup.WithContext(ctx)
	if kind == "" || kind == "templates" {
		eg.Go(func() error {
			all, err := client.ListTemplates(egCtx)
			if err != nil {
				logger.Warn("Listing templates failed", zap.Error(err))
			}
			templatesOut = report.TemplatesSection(all, err)
			return nil
		})
	}
	if kind == "" || kind == "designs" {
		eg.Go(func() error {
			designs, err := client.ListDesigns(egCtx, true)
			if err != nil {
				logger.Warn("Listing designs failed", zap.Error(err))
			}
			designsOut = report.DesignsSection(designs, err)
			return nil
		})
	}
	_ = eg.Wait()

	var sections []string
	for _, s := range []string{templatesOut, designsOut} {
		if s != "" {
			sections = append(sections, s)
		}
	}
	report.NewPrinter(cmd.OutOrStdout(), verbose).Sections(sections...)
	return nil
}
