package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/textan/internal/model"
	"github.com/rcliao/textan/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the outcomes of a run",
		Args:  cobra.ExactArgs(1),
		Run:   runShow,
	}

	cmd.Flags().String("submission", "", "Filter by submission id")
	cmd.Flags().String("state", "", "Filter by state (completed, timed_out, errored, load_failed)")

	RootCmd.AddCommand(cmd)
}

func runShow(cmd *cobra.Command, args []string) {
	sub, _ := cmd.Flags().GetString("submission")
	state, _ := cmd.Flags().GetString("state")
	if state != "" && !model.ValidStates[model.State(state)] {
		exitErr("show", fmt.Errorf("invalid state %q", state))
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	run, err := s.GetRun(cmd.Context(), args[0])
	if err != nil {
		exitErr("show", err)
	}
	run.Outcomes, err = s.ListOutcomes(cmd.Context(), store.OutcomeParams{
		RunID:        run.ID,
		SubmissionID: sub,
		State:        model.State(state),
		Limit:        -1,
	})
	if err != nil {
		exitErr("show", err)
	}

	if formatFlag != "text" {
		printJSON(run)
		return
	}

	fmt.Printf("run %s  started %s  n=%d  corpus %s\n",
		run.ID, run.StartedAt.Local().Format("2006-01-02 15:04:05"), run.NGramSize, run.CorpusDir)
	for _, o := range run.Outcomes {
		fmt.Printf("  %-20s %-12s %7.2fs", o.SubmissionID, o.State, o.Seconds)
		if o.Error != "" {
			fmt.Printf("  %s", o.Error)
		}
		fmt.Println()
		for _, op := range o.Ops {
			fmt.Printf("      %-10s %7.2fs\n", op.Name, op.Seconds)
		}
		var work string
		var line []string
		flush := func() {
			if len(line) > 0 {
				fmt.Printf("      %s: %s\n", work, strings.Join(line, " "))
			}
		}
		for _, a := range o.Attributions {
			if a.Work != work {
				flush()
				work, line = a.Work, nil
			}
			line = append(line, fmt.Sprintf("%s:%.4f", a.Author, a.Score))
		}
		flush()
	}
}
