package model

import "errors"

const (
	TagName               = "Name"
	TagRetention          = "Retention"
	TagDeleteAfter        = "DeleteAfter"
	TagOriginalInstanceID = "OriginalInstanceID"

	ManagedTagValue = "true"

	// DeleteAfterLayout is MM-DD-YYYY
	DeleteAfterLayout = "01-02-2006"
	// ImageTimestampLayout is YYYY-MM-DD-HH-MM-SS
	ImageTimestampLayout = "2006-01-02-15-04-05"

	InstanceStateTerminated = "terminated"
)

// ErrRegionNotEnabled is returned by a ComputeService when the region has
// not been opted in for the account.
var ErrRegionNotEnabled = errors.New("region not enabled for this account")

// Config is the immutable configuration of a run.
type Config struct {
	Regions              []string
	MarkerTags           []string
	DefaultRetentionDays int
	ManagedTagKey        string
	Profile              string
	DryRun               bool
	IsolateFailures      bool
	MaxAttempts          int
	Schedule             string
	MetricsAddr          string
	LogLevel             string
	LogFormat            string
}
