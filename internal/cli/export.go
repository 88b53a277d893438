package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export runs as JSON",
		Long:  "Export every live run with its outcomes as JSON, in the format read by import.",
		Run:   runExport,
	}

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	runs, err := s.ExportAll(cmd.Context())
	if err != nil {
		exitErr("export", err)
	}
	printJSON(runs)
}
