package migrate

import "testing"

func TestMigrations(t *testing.T) {
	tests := []struct {
		table string
		want  string
	}{
		{table: "", want: PartitionRecordsTableName},
		{table: "custom_records", want: "custom_records"},
	}
	for _, tt := range tests {
		migrations := Migrations(tt.table)
		if len(migrations) != 1 {
			t.Fatalf("Migrations() returned %d migrations", len(migrations))
		}
		if got := migrations[0].TableName(); got != tt.want {
			t.Errorf("TableName() = %q, want %q", got, tt.want)
		}
		if migrations[0].Version() != PartitionRecordsVersion {
			t.Errorf("Version() = %q", migrations[0].Version())
		}
	}
}
