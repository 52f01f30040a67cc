package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "Manage contact labels in Chatwoot",
}

var labelsBackfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Attach the customer label to synced contacts missing it",
	Long: `Walks every synced contact and attaches the customer label where it
is missing. Useful after contacts were synced before labelling existed
or labels were removed by hand.`,
	RunE: runLabelsBackfill,
}

func init() {
	labelsCmd.AddCommand(labelsBackfillCmd)
	rootCmd.AddCommand(labelsCmd)
}

func runLabelsBackfill(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if maintainer == nil {
		return errors.New("maintenance service not configured")
	}

	cmd.Println("Backfilling customer labels...")
	checked, added, err := maintainer.BackfillLabels(cmd.Context())
	if err != nil {
		return err
	}
	cmd.Printf("Checked %d contacts, labelled %d.\n", checked, added)
	return nil
}
