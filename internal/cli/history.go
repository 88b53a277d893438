package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rcliao/textan/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List grading runs, newest first",
		Run:   runHistory,
	}

	cmd.Flags().IntP("limit", "l", 20, "Max results")

	RootCmd.AddCommand(cmd)
}

func runHistory(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	runs, err := s.ListRuns(cmd.Context(), store.ListParams{Limit: limit})
	if err != nil {
		exitErr("history", err)
	}

	if formatFlag != "text" {
		printJSON(runs)
		return
	}
	for _, r := range runs {
		status := "running"
		if r.FinishedAt != nil {
			status = "finished in " + r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		fmt.Printf("%s  %-14s  n=%d  %d submissions  %s  %s\n",
			r.ID, humanize.Time(r.StartedAt), r.NGramSize, r.RosterSize, r.CorpusDir, status)
	}
}
