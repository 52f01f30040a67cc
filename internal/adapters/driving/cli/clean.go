package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var cleanConfirm bool

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete every contact from Chatwoot",
	Long: `Deletes every contact from the Chatwoot contact database. This is
irreversible and intended for resetting a test account before a full
resync. Requires --confirm.`,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().BoolVar(&cleanConfirm, "confirm", false, "confirm deleting every contact")
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, _ []string) error {
	if !cleanConfirm {
		return errors.New("refusing to delete contacts without --confirm")
	}
	if err := ensureServices(); err != nil {
		return err
	}
	if maintainer == nil {
		return errors.New("maintenance service not configured")
	}

	cmd.Println("Deleting all contacts...")
	deleted, err := maintainer.Clean(cmd.Context())
	if err != nil {
		cmd.Printf("Deleted %d contacts before failing.\n", deleted)
		return err
	}
	cmd.Printf("Deleted %d contacts.\n", deleted)
	return nil
}
