package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/spf13/cobra"
)

func newTestCommand() *cobra.Command {
	root := &cobra.Command{Use: "morphsplit"}
	root.PersistentFlags().String("log-level", "info", "")
	root.PersistentFlags().String("dynamodb-table", "partition_records", "")
	split := &cobra.Command{Use: "split", Run: func(cmd *cobra.Command, args []string) {}}
	split.Flags().Bool("compress-ranges", false, "")
	root.AddCommand(split)
	return split
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"LOG_LEVEL", "DYNAMODB_TABLE", "DATA_TYPE_PREFIX", "COMPRESS_RANGES", "NEXUS_EXTENSIONS"} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("", nil)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.LogLevel != "info" || cfg.DynamoDBTable != "partition_records" || cfg.DataTypePrefix != "morphDataType." {
		t.Errorf("LoadConfig() = %+v", cfg)
	}
	if cfg.CompressRanges {
		t.Error("compress_ranges should default to false")
	}
	if !slices.Equal(cfg.NexusExtensions, []string{".nex", ".nxs", ".nexus"}) {
		t.Errorf("NexusExtensions = %v", cfg.NexusExtensions)
	}
}

func TestLoadConfig_FilePrecedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "custom.yaml")
	content := "log_level: debug\ndynamodb_table: from-file\nnexus_extensions: [NEX, .morph]\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cmd := newTestCommand()
	if err := cmd.Flags().Set("compress-ranges", "true"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := cmd.Root().PersistentFlags().Set("dynamodb-table", "from-flag"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	cfg, err := LoadConfig(path, cmd)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug from file", cfg.LogLevel)
	}
	if cfg.DynamoDBTable != "from-flag" {
		t.Errorf("DynamoDBTable = %q, want the flag value", cfg.DynamoDBTable)
	}
	if !cfg.CompressRanges {
		t.Error("CompressRanges should be set by the flag")
	}
	if !slices.Equal(cfg.NexusExtensions, []string{".nex", ".morph"}) {
		t.Errorf("NexusExtensions = %v", cfg.NexusExtensions)
	}
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log_level: debug\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := LoadConfig("", newTestCommand())
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn from the environment", cfg.LogLevel)
	}
}

func TestLoadConfig_BadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	if err := os.WriteFile(path, []byte("log_level: [unclosed"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := LoadConfig(path, nil); err == nil {
		t.Error("LoadConfig() error = nil, want error")
	}
}
