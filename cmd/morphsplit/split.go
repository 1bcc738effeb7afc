package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zzenonn/morphsplit/internal/domain"
	"github.com/zzenonn/morphsplit/internal/partition"
	"github.com/zzenonn/morphsplit/internal/repository/db"
	"github.com/zzenonn/morphsplit/internal/repository/registry"
	"github.com/zzenonn/morphsplit/internal/service"
	"github.com/zzenonn/morphsplit/internal/source"
	"github.com/zzenonn/morphsplit/internal/template"
)

var splitCmd = &cobra.Command{
	Use:   "split [file|dir|s3://bucket/key|gs://bucket/key]...",
	Short: "Partition Nexus alignments and wire a model subnet per partition",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		quiet, _ := cmd.Flags().GetBool("quiet")
		persist, _ := cmd.Flags().GetBool("persist")
		export, _ := cmd.Flags().GetString("export")

		locations := source.NewLocations(repos, quiet)
		reg := registry.NewMemoryRegistry()
		partitioner := partition.NewPartitioner(reg, template.NewSubnetTemplate(reg), partition.Options{
			CompressRanges: cfg.CompressRanges,
			DataTypePrefix: cfg.DataTypePrefix,
		})
		provider := service.NewAlignmentProviderService(source.ArgsSelector{Paths: args}, locations, partitioner, cfg.NexusExtensions)

		outcome, err := provider.GetAlignments(ctx)
		if err != nil {
			fail("Error: %v", err)
		}
		if outcome == nil {
			fmt.Println("No files selected")
			return
		}
		printWarnings(outcome.Warnings)

		var repo service.PlanRepository
		if persist {
			dynamoDb, err := connect(ctx)
			if err != nil {
				fail("Failed to connect to the database: %v", err)
			}
			repo = db.NewPartitionRepository(dynamoDb.Client, cfg.DynamoDBTable)
		}
		plans := service.NewPlanService(repo, locations)
		plan := plans.NewPlan(outcome.Processed)
		printPlan(plan)
		fmt.Printf("%d entities registered\n", reg.Len())

		if persist {
			if err := plans.Persist(ctx, plan); err != nil {
				fail("Error persisting plan: %v", err)
			}
		}
		if export != "" {
			if err := plans.Export(ctx, export, plan); err != nil {
				fail("Error exporting plan: %v", err)
			}
			okColor.Printf("Plan %s exported to %s\n", plan.RunID, export)
		}
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [file|dir|s3://bucket/key|gs://bucket/key]...",
	Short: "Show the state-count partitions of Nexus alignments without wiring models",
	Run: func(cmd *cobra.Command, args []string) {
		quiet, _ := cmd.Flags().GetBool("quiet")
		partitioner := partition.NewPartitioner(nil, nil, partition.Options{
			CompressRanges: cfg.CompressRanges,
			DataTypePrefix: cfg.DataTypePrefix,
		})
		provider := service.NewAlignmentProviderService(source.ArgsSelector{Paths: args}, source.NewLocations(repos, quiet), partitioner, cfg.NexusExtensions)

		outcome, err := provider.GetAlignments(cmd.Context())
		if err != nil {
			fail("Error: %v", err)
		}
		if outcome == nil {
			fmt.Println("No files selected")
			return
		}
		printWarnings(outcome.Warnings)

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ALIGNMENT\tPARTITION\tSTATES\tSITES\tFILTER")
		for _, p := range outcome.Processed {
			for _, f := range p.Result.Filtered {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", p.Result.AlignmentID, f.ID, f.DataType.StateCount(), f.SiteCount(), f.Filter)
			}
		}
		w.Flush()
	},
}

func printWarnings(warnings []service.OverlapWarning) {
	for _, warning := range warnings {
		warnColor.Fprintf(os.Stderr, "Warning: %s\n", warning)
	}
}

func printPlan(plan domain.PartitionPlan) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PARTITION\tSTATES\tSITES\tDATA TYPE\tFILTER")
	for _, r := range plan.Records {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\n", r.PartitionID, r.StateCount, r.SiteCount, r.DataTypeID, r.Filter)
	}
	w.Flush()

	for _, r := range plan.Records {
		if !r.Wired {
			warnColor.Fprintf(os.Stderr, "Warning: %s has no model subnet: %s\n", r.PartitionID, r.WiringError)
		}
	}
	fmt.Printf("Run %s: %d partitions\n", plan.RunID, len(plan.Records))
}

func init() {
	splitCmd.Flags().Bool("compress-ranges", false, "write filters as a-b ranges instead of site lists")
	splitCmd.Flags().Bool("persist", false, "store partition records in DynamoDB")
	splitCmd.Flags().String("export", "", "write the partition plan as JSON to a path, s3:// or gs:// URI")
	splitCmd.Flags().BoolP("quiet", "q", false, "hide transfer progress bars")

	inspectCmd.Flags().Bool("compress-ranges", false, "write filters as a-b ranges instead of site lists")
	inspectCmd.Flags().BoolP("quiet", "q", false, "hide transfer progress bars")

	rootCmd.AddCommand(splitCmd)
	rootCmd.AddCommand(inspectCmd)
}
