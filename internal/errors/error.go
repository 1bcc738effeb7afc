package errors

import (
	"errors"
	"fmt"
)

var (
	ErrSelectionCancelled    = errors.New("file selection cancelled")
	ErrNoAlignment           = errors.New("no alignment found")
	ErrDuplicateID           = errors.New("identifier already registered")
	ErrEmptyBucket           = errors.New("state-count bucket has no sites")
	ErrSiteOutOfRange        = errors.New("site index out of range")
	ErrSiteReused            = errors.New("site assigned to more than one bucket")
	ErrSiteDropped           = errors.New("site not assigned to any bucket")
	ErrUnsupportedDataType   = errors.New("unsupported data type")
	ErrTooFewStates          = errors.New("substitution model needs at least two states")
	ErrMissingRequiredFields = errors.New("missing required fields")
)

// ParseFailure reports a Nexus file that could not be read or parsed.
type ParseFailure struct {
	FileName string
	Err      error
}

func (e *ParseFailure) Error() string {
	return fmt.Sprintf("loading of %s failed: %v", e.FileName, e.Err)
}

func (e *ParseFailure) Unwrap() error { return e.Err }

// PartitionConstructionFailure aborts partitioning of a whole alignment.
type PartitionConstructionFailure struct {
	AlignmentID string
	Err         error
}

func (e *PartitionConstructionFailure) Error() string {
	return fmt.Sprintf("something went wrong converting alignment %s: %v", e.AlignmentID, e.Err)
}

func (e *PartitionConstructionFailure) Unwrap() error { return e.Err }

// TemplateWiringFailure is logged and kept; sibling partitions still get built.
type TemplateWiringFailure struct {
	Partition string
	Err       error
}

func (e *TemplateWiringFailure) Error() string {
	return fmt.Sprintf("failed to wire model subnet for partition %s: %v", e.Partition, e.Err)
}

func (e *TemplateWiringFailure) Unwrap() error { return e.Err }

// FetchingResourceError generates a formatted error for failed fetching of any resource by its type.
func FetchingResourceError(resource string) error {
	return fmt.Errorf("failed to fetch %s by id", resource)
}

func ConfigNotSetError(config string) error {
	return fmt.Errorf("the %s configuration value must be set", config)
}
