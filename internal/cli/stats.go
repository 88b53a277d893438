package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show results database statistics",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	path := getDBPath()
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	stats, err := s.Stats(cmd.Context(), path)
	if err != nil {
		exitErr("stats", err)
	}

	if formatFlag != "text" {
		printJSON(stats)
		return
	}
	fmt.Printf("%s (%s)\n", stats.DBPath, humanize.Bytes(uint64(stats.DBSizeBytes)))
	fmt.Printf("runs: %d (%d active), outcomes: %s\n",
		stats.TotalRuns, stats.ActiveRuns, humanize.Comma(int64(stats.TotalOutcomes)))
	for _, st := range stats.States {
		fmt.Printf("  %-12s %d\n", st.State, st.Count)
	}
	for _, sub := range stats.Submissions {
		fmt.Printf("  %-20s %d/%d completed, avg %.2fs\n", sub.SubmissionID, sub.Completed, sub.Outcomes, sub.AvgSeconds)
	}
}
