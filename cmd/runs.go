package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent pipeline runs from the local journal",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		journal, err := openJournal(ctx)
		if err != nil {
			return err
		}
		defer journal.Close()

		runs, err := journal.List(ctx, runsLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded")
			return nil
		}

		for _, r := range runs {
			fmt.Printf("%s  %s  [%s .. %s]  records=%d regions=%d polygons=%d inserted=%d\n",
				r.RunID, r.Dataset,
				r.StartDate.Format("2006-01-02"), r.EndDate.Format("2006-01-02"),
				r.RecordsUsed, r.RegionPoints, r.Polygons, r.RowsInserted)
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum runs to list")
	rootCmd.AddCommand(runsCmd)
}
