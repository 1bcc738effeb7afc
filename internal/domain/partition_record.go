package domain

import "time"

// PartitionContext names the model components a partition is linked to.
type PartitionContext struct {
	Partition  string
	SiteModel  string
	ClockModel string
	Tree       string
}

// NewPartitionContext links a partition to its own site model and to a
// shared clock model and tree.
func NewPartitionContext(partition, clock, tree string) PartitionContext {
	return PartitionContext{
		Partition:  partition,
		SiteModel:  partition,
		ClockModel: clock,
		Tree:       tree,
	}
}

// PartitionRecord - summary of one state-count partition of an alignment
type PartitionRecord struct {
	AlignmentID string `json:"alignment_id" dynamodbav:"alignment_id"` // Partition Key
	PartitionID string `json:"partition_id" dynamodbav:"partition_id"` // Sort Key
	RunID       string `json:"run_id" dynamodbav:"run_id"`
	Source      string `json:"source" dynamodbav:"source"`
	StateCount  int    `json:"state_count" dynamodbav:"state_count"`
	SiteCount   int    `json:"site_count" dynamodbav:"site_count"`
	Filter      string `json:"filter" dynamodbav:"filter"`
	DataTypeID  string `json:"data_type_id" dynamodbav:"data_type_id"`
	DataType    string `json:"data_type" dynamodbav:"data_type"`
	Wired       bool   `json:"wired" dynamodbav:"wired"`
	WiringError string `json:"wiring_error,omitempty" dynamodbav:"wiring_error,omitempty"`
}

// PartitionPlan - every partition produced by one run
type PartitionPlan struct {
	RunID     string            `json:"run_id"`
	CreatedAt time.Time         `json:"created_at"`
	Records   []PartitionRecord `json:"records"`
}
