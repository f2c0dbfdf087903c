package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var projectsJSON bool

// projectsCmd groups project maintenance commands
var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Inspect stored projects",
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored projects, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, repo, err := openRepository()
		if err != nil {
			return err
		}
		defer func() {
			if err := backend.Close(); err != nil {
				logger.Warn("failed to close storage", zap.Error(err))
			}
		}()

		list := repo.List(cmd.Context())
		out := cmd.OutOrStdout()
		if projectsJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(list)
		}
		if len(list) == 0 {
			fmt.Fprintln(out, "No projects stored.")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tDISCIPLINE\tSTATUS\tPROGRESS\tFILES")
		for _, p := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d%%\t%d\n", p.ID, p.Name, p.Discipline, p.Status, p.Progress, len(p.Files))
		}
		return w.Flush()
	},
}

func init() {
	projectsListCmd.Flags().BoolVar(&projectsJSON, "json", false, "print JSON instead of a table")
	projectsCmd.AddCommand(projectsListCmd)
}
