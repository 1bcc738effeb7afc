package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zzenonn/morphsplit/internal/repository/db"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Manage persisted partition records",
}

var recordsListCmd = &cobra.Command{
	Use:   "list [alignment-id]",
	Short: "List the persisted partitions of an alignment",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		repo := partitionRepository(cmd)
		records, err := repo.ListRecords(cmd.Context(), args[0])
		if err != nil {
			fail("Error listing records: %v", err)
		}
		if len(records) == 0 {
			fmt.Printf("No partitions stored for %s\n", args[0])
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PARTITION\tRUN\tSTATES\tSITES\tWIRED\tFILTER")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%t\t%s\n", r.PartitionID, r.RunID, r.StateCount, r.SiteCount, r.Wired, r.Filter)
		}
		w.Flush()
	},
}

var recordsDeleteCmd = &cobra.Command{
	Use:   "delete [alignment-id]",
	Short: "Delete the persisted partitions of an alignment",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		repo := partitionRepository(cmd)
		n, err := repo.DeleteRecords(cmd.Context(), args[0])
		if err != nil {
			fail("Error deleting records (%d removed): %v", n, err)
		}
		okColor.Printf("Deleted %d partition records of %s\n", n, args[0])
	},
}

func partitionRepository(cmd *cobra.Command) *db.PartitionRepository {
	dynamoDb, err := connect(cmd.Context())
	if err != nil {
		fail("Failed to connect to the database: %v", err)
	}
	return db.NewPartitionRepository(dynamoDb.Client, cfg.DynamoDBTable)
}

func init() {
	recordsCmd.AddCommand(recordsListCmd)
	recordsCmd.AddCommand(recordsDeleteCmd)
	rootCmd.AddCommand(recordsCmd)
}
