package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zzenonn/morphsplit/internal/config"
	"github.com/zzenonn/morphsplit/internal/logging"
	"github.com/zzenonn/morphsplit/internal/repository/db"
	"github.com/zzenonn/morphsplit/internal/repository/objectstore"
)

var (
	cfgFile string
	cfg     *config.Config
	repos   *objectstore.ObjectRepositoryFactory
)

var (
	warnColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed, color.Bold)
	okColor    = color.New(color.FgGreen)
)

var rootCmd = &cobra.Command{
	Use:   "morphsplit",
	Short: "Split morphological alignments into partitions by state count",
	Long: "morphsplit reads Nexus alignments from local paths, S3 or GCS, groups their " +
		"characters by number of states and builds one partition with its own " +
		"model subnet per state count.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initConfig(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if repos == nil {
			return
		}
		if err := repos.Close(); err != nil {
			log.Warnf("Failed to close storage clients: %v", err)
		}
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the partition records table",
	Run: func(cmd *cobra.Command, args []string) {
		dynamoDb, err := connect(cmd.Context())
		if err != nil {
			fail("Failed to connect to the database: %v", err)
		}

		if err := dynamoDb.MigrateDb(cmd.Context(), cfg.DynamoDBTable); err != nil {
			fail("Failed to migrate the database: %v", err)
		}

		okColor.Println("Database initialized and migrated successfully")
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Drop the partition records table",
	Run: func(cmd *cobra.Command, args []string) {
		dynamoDb, err := connect(cmd.Context())
		if err != nil {
			fail("Failed to connect to the database: %v", err)
		}

		if err := dynamoDb.MigrateDown(cmd.Context(), cfg.DynamoDBTable); err != nil {
			fail("Failed to roll back migrations: %v", err)
		}

		okColor.Println("Database migrations rolled back successfully")
	},
}

func initConfig(cmd *cobra.Command) {
	var err error
	cfg, err = config.LoadConfig(cfgFile, cmd)
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	logging.InitLogger(cfg)

	// cloud clients are created on first use
	repos = objectstore.NewObjectRepositoryFactory(config.LoadAWSConfig, config.NewGCSClient)
}

func connect(ctx context.Context) (*db.DynamoDb, error) {
	awsConfig, err := config.LoadAWSConfig(ctx)
	if err != nil {
		return nil, err
	}
	return db.NewDatabase(awsConfig)
}

func fail(format string, args ...any) {
	errorColor.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./config.yaml or ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("dynamodb-table", "partition_records", "DynamoDB table for partition records")
	rootCmd.PersistentFlags().String("data-type-prefix", "morphDataType.", "prefix of synthesized data type IDs")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(downCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
