package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/textan/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rm [run-id]",
		Short: "Delete runs",
		Long:  "Delete one run by id, or every run older than --older-than (e.g. 7d, 24h). Deletion is soft unless --hard is given.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runRm,
	}

	cmd.Flags().String("older-than", "", "Delete runs started before this age (e.g. 30m, 24h, 7d)")
	cmd.Flags().Bool("hard", false, "Permanent delete (irreversible)")

	RootCmd.AddCommand(cmd)
}

func runRm(cmd *cobra.Command, args []string) {
	olderThan, _ := cmd.Flags().GetString("older-than")
	hard, _ := cmd.Flags().GetBool("hard")

	var runID string
	if len(args) == 1 {
		runID = args[0]
	}
	if (runID == "") == (olderThan == "") {
		exitErr("rm", errors.New("give either a run id or --older-than"))
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	n, err := s.Rm(cmd.Context(), store.RmParams{
		RunID:     runID,
		OlderThan: olderThan,
		Hard:      hard,
	})
	if err != nil {
		exitErr("rm", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"deleted":%d,"hard":%t}`+"\n", n, hard)
}
