package main

import (
	"fmt"

	"github.com/Helveg/sendgrid-template-manager/internal/contacts"
	"github.com/Helveg/sendgrid-template-manager/internal/logging"
	"github.com/Helveg/sendgrid-template-manager/internal/report"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var uploadOpts contacts.Options

// contactsCmd groups contact commands
var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "Count and upload marketing contacts",
}

var contactsCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Show total and billable contact counts",
	Args:  cobra.NoArgs,
	RunE:  runContactsCount,
}

var contactsUploadCmd = &cobra.Command{
	Use:   "upload <csv>",
	Short: "Upload contacts from a CSV file",
	Long: `Uploads the contacts of a CSV file. Columns are matched to contact fields by
name; unmatched columns are skipped.

With --crop, --split or --skip the rows are first reshaped into split files
that are uploaded concurrently as separate imports.`,
	Args: cobra.ExactArgs(1),
	RunE: runContactsUpload,
}

func init() {
	f := contactsUploadCmd.Flags()
	f.IntVar(&uploadOpts.Crop, "crop", 0, "Use at most this many rows")
	f.IntVar(&uploadOpts.Split, "split", 0, "Split the rows over this many uploads")
	f.IntVar(&uploadOpts.Skip, "skip", 0, "Skip this many leading rows")
	f.StringSliceVar(&uploadOpts.Lists, "lists", nil, "List ids to add the contacts to")
	f.BoolVar(&uploadOpts.RoundRobin, "round-robin", false, "Add each upload to one list, in turn")

	contactsCmd.AddCommand(contactsCountCmd)
	contactsCmd.AddCommand(contactsUploadCmd)
}

func runContactsCount(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	count, err := client.CountContacts(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to count contacts: %w", err)
	}
	report.NewPrinter(cmd.OutOrStdout(), verbose).ContactCount(count)
	return nil
}

func runContactsUpload(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	uploader := contacts.NewUploader(client, logging.Get(logging.CategoryContacts))

	plan, err := uploader.Prepare(ctx, args[0], uploadOpts)
	if err != nil {
		return err
	}
	defer func() {
		if err := plan.Cleanup(); err != nil {
			logger.Warn("Failed to remove split files", zap.String("dir", plan.Dir), zap.Error(err))
		}
	}()

	out := cmd.OutOrStdout()
	printer := report.NewPrinter(out, verbose)
	fmt.Fprintf(out, "Parsed %d records from %s\n", len(plan.Table.Rows), args[0])
	printer.Mappings(plan.Mappings)
	printer.Uploads(uploader.Upload(ctx, plan))
	return nil
}
