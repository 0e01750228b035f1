package main

import (
	"fmt"

	"github.com/Helveg/sendgrid-template-manager/internal/lists"
	"github.com/Helveg/sendgrid-template-manager/internal/logging"
	"github.com/Helveg/sendgrid-template-manager/internal/report"
	"github.com/spf13/cobra"
)

var deleteContacts bool

// listsCmd shows contact lists
var listsCmd = &cobra.Command{
	Use:   "lists [patterns...]",
	Short: "Show contact lists",
	Long: `Shows the contact lists whose id equals, or whose name matches, any of the
given patterns. Patterns use shell glob syntax. Without patterns all lists
are shown.`,
	RunE: runLists,
}

// listsDeleteCmd deletes contact lists
var listsDeleteCmd = &cobra.Command{
	Use:   "delete <patterns...>",
	Short: "Delete contact lists",
	Example: `  sgtm lists delete "test-*"
  sgtm lists delete 2f1ae3b0-1a2b --delete-contacts`,
	Args: cobra.MinimumNArgs(1),
	RunE: runListsDelete,
}

func init() {
	listsDeleteCmd.Flags().BoolVar(&deleteContacts, "delete-contacts", false, "Also delete the contacts on the lists")
	listsCmd.AddCommand(listsDeleteCmd)
}

func newListManager() (*lists.Manager, error) {
	client, err := newClient()
	if err != nil {
		return nil, err
	}
	return lists.NewManager(client, logging.Get(logging.CategoryLists), cfg.Contacts.PageSize), nil
}

func runLists(cmd *cobra.Command, args []string) error {
	m, err := newListManager()
	if err != nil {
		return err
	}
	selected, err := m.Find(commandContext(cmd), args)
	if err != nil {
		return err
	}
	report.NewPrinter(cmd.OutOrStdout(), verbose).Lists(selected)
	return nil
}

func runListsDelete(cmd *cobra.Command, args []string) error {
	m, err := newListManager()
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	selected, err := m.Find(ctx, args)
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No lists matched")
		return nil
	}
	outcomes := m.Delete(ctx, selected, deleteContacts)
	report.NewPrinter(cmd.OutOrStdout(), verbose).Deletions(outcomes)
	return nil
}
