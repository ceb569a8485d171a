package model

import "time"

// AccountInfo represents the cloud account the run is executed against
type AccountInfo struct {
	Provider    string
	AccountID   string
	AccountName string
}

// Instance is a read-only view of a compute instance
type Instance struct {
	ID    string
	State string
	Tags  map[string]string
}

// Image is a machine image together with the storage snapshots backing it
type Image struct {
	ID          string
	Name        string
	Tags        map[string]string
	SnapshotIDs []string // only mappings backed by a volume
}

// CreateImageInput describes an image to create from an instance
type CreateImageInput struct {
	InstanceID  string
	Name        string
	Description string
	NoReboot    bool
	DryRun      bool
}

// ItemError records a failure that did not abort the run
type ItemError struct {
	Resource string
	Action   string
	Err      error
}

func (e ItemError) Error() string {
	return e.Action + " " + e.Resource + ": " + e.Err.Error()
}

// RegionReport summarizes what happened in a single region
type RegionReport struct {
	Region             string
	NotEnabled         bool
	InstancesScanned   int
	ImagesCreated      int
	ImagesConsidered   int
	ImagesDeregistered int
	ImagesSkipped      int
	SnapshotsDeleted   int
	Errors             []ItemError
	Fatal              error
}

// RecordError appends a non-fatal failure to the report
func (r *RegionReport) RecordError(resource, action string, err error) {
	r.Errors = append(r.Errors, ItemError{Resource: resource, Action: action, Err: err})
}

// RunReport is the outcome of one backup-then-expire cycle
type RunReport struct {
	AccountID string
	StartedAt time.Time
	EndedAt   time.Time
	DryRun    bool
	Regions   []RegionReport
}

// Totals sums the counters of every region
func (r *RunReport) Totals() RegionReport {
	total := RegionReport{Region: "TOTAL"}
	for _, region := range r.Regions {
		total.InstancesScanned += region.InstancesScanned
		total.ImagesCreated += region.ImagesCreated
		total.ImagesConsidered += region.ImagesConsidered
		total.ImagesDeregistered += region.ImagesDeregistered
		total.ImagesSkipped += region.ImagesSkipped
		total.SnapshotsDeleted += region.SnapshotsDeleted
		total.Errors = append(total.Errors, region.Errors...)
	}
	return total
}
