package config

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	LogLevel        string   `yaml:"log_level"`
	DynamoDBTable   string   `yaml:"dynamodb_table"`
	DataTypePrefix  string   `yaml:"data_type_prefix"`
	CompressRanges  bool     `yaml:"compress_ranges"`
	NexusExtensions []string `yaml:"nexus_extensions"`
}

// flagBindings maps configuration keys to the CLI flags that override them
var flagBindings = map[string]string{
	"log_level":        "log-level",
	"dynamodb_table":   "dynamodb-table",
	"data_type_prefix": "data-type-prefix",
	"compress_ranges":  "compress-ranges",
}

// LoadConfig loads configuration from config.yaml, environment variables, or CLI flags
// Priority: CLI flags > Environment variables > config.yaml > defaults
func LoadConfig(configPath string, cmd *cobra.Command) (*Config, error) {
	v := viper.New()
	if err := setupViper(v, configPath, cmd); err != nil {
		return nil, err
	}

	return &Config{
		LogLevel:        v.GetString("log_level"),
		DynamoDBTable:   v.GetString("dynamodb_table"),
		DataTypePrefix:  v.GetString("data_type_prefix"),
		CompressRanges:  v.GetBool("compress_ranges"),
		NexusExtensions: normalizeExtensions(v.GetStringSlice("nexus_extensions")),
	}, nil
}

// setupViper configures Viper with defaults, paths, and bindings
func setupViper(v *viper.Viper, configPath string, cmd *cobra.Command) error {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if configPath != "" {
		v.SetConfigFile(configPath)
	}

	setDefaults(v)
	v.AutomaticEnv()

	if cmd != nil {
		for key, name := range flagBindings {
			flag := lookupFlag(cmd, name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

func lookupFlag(cmd *cobra.Command, name string) *pflag.Flag {
	if flag := cmd.Flags().Lookup(name); flag != nil {
		return flag
	}
	return cmd.InheritedFlags().Lookup(name)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("dynamodb_table", "partition_records")
	v.SetDefault("data_type_prefix", "morphDataType.")
	v.SetDefault("compress_ranges", false)
	v.SetDefault("nexus_extensions", []string{".nex", ".nxs", ".nexus"})
}

// normalizeExtensions lower-cases extensions and adds a missing leading dot
func normalizeExtensions(exts []string) []string {
	normalized := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}
	return normalized
}

// LoadAWSConfig loads AWS SDK configuration
func LoadAWSConfig(ctx context.Context) (aws.Config, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return aws.Config{}, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}
	return cfg, nil
}

// NewGCSClient creates a Google Cloud Storage client
func NewGCSClient(ctx context.Context) (*storage.Client, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to create GCS client: %w", err)
	}
	return client, nil
}
