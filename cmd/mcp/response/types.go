package response

// AccountInfo represents cloud account identity
type AccountInfo struct {
	Provider    string `json:"provider"`
	AccountID   string `json:"account_id"`
	AccountName string `json:"account_name"`
}

// BackupCandidate is an instance the next run would back up
type BackupCandidate struct {
	Region        string `json:"region"`
	InstanceID    string `json:"instance_id"`
	State         string `json:"state"`
	DisplayName   string `json:"display_name"`
	RetentionDays int    `json:"retention_days"`
	ImageName     string `json:"image_name"`
	DeleteAfter   string `json:"delete_after"`
}

// ManagedImage is an image carrying the management marker tag
type ManagedImage struct {
	Region      string   `json:"region"`
	ImageID     string   `json:"image_id"`
	Name        string   `json:"name"`
	InstanceID  string   `json:"original_instance_id,omitempty"`
	DeleteAfter string   `json:"delete_after,omitempty"`
	Status      string   `json:"status"` // "expired", "retained", "no_delete_after", "invalid_delete_after"
	SnapshotIDs []string `json:"snapshot_ids"`
}

// RegionListing groups per-region results of a listing tool
type RegionListing[T any] struct {
	Region     string `json:"region"`
	NotEnabled bool   `json:"not_enabled,omitempty"`
	Error      string `json:"error,omitempty"`
	Items      []T    `json:"items"`
}

// RegionSummary mirrors model.RegionReport
type RegionSummary struct {
	Region             string   `json:"region"`
	NotEnabled         bool     `json:"not_enabled"`
	InstancesScanned   int      `json:"instances_scanned"`
	ImagesCreated      int      `json:"images_created"`
	ImagesConsidered   int      `json:"images_considered"`
	ImagesDeregistered int      `json:"images_deregistered"`
	ImagesSkipped      int      `json:"images_skipped"`
	SnapshotsDeleted   int      `json:"snapshots_deleted"`
	Errors             []string `json:"errors,omitempty"`
	Fatal              string   `json:"fatal,omitempty"`
}

// RunSummary mirrors model.RunReport
type RunSummary struct {
	AccountID string          `json:"account_id,omitempty"`
	DryRun    bool            `json:"dry_run"`
	StartedAt string          `json:"started_at"`
	EndedAt   string          `json:"ended_at"`
	Regions   []RegionSummary `json:"regions"`
	Error     string          `json:"error,omitempty"`
}
