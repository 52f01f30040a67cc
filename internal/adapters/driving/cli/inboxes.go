package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var inboxesCmd = &cobra.Command{
	Use:   "inboxes",
	Short: "Manage contact inbox assignments in Chatwoot",
}

var inboxesReassignCmd = &cobra.Command{
	Use:   "reassign",
	Short: "Re-run inbox assignment for every synced contact",
	Long: `Assigns every synced contact to the customer inbox again. Useful
after the inbox was recreated or assignment failed during a sync run.`,
	RunE: runInboxesReassign,
}

func init() {
	inboxesCmd.AddCommand(inboxesReassignCmd)
	rootCmd.AddCommand(inboxesCmd)
}

func runInboxesReassign(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if maintainer == nil {
		return errors.New("maintenance service not configured")
	}

	cmd.Println("Reassigning contacts to the customer inbox...")
	assigned, err := maintainer.ReassignInboxes(cmd.Context())
	if err != nil {
		return err
	}
	cmd.Printf("Assigned %d contacts.\n", assigned)
	return nil
}
