package response

import (
	"time"

	"github.com/elC0mpa/ami-rotator/model"
)

// ConvertAccountInfo converts model.AccountInfo to response.AccountInfo
func ConvertAccountInfo(info *model.AccountInfo) *AccountInfo {
	if info == nil {
		return nil
	}
	return &AccountInfo{
		Provider:    info.Provider,
		AccountID:   info.AccountID,
		AccountName: info.AccountName,
	}
}

// ConvertRunReport converts model.RunReport to response.RunSummary
func ConvertRunReport(report *model.RunReport, runErr error) *RunSummary {
	if report == nil {
		return nil
	}

	summary := &RunSummary{
		AccountID: report.AccountID,
		DryRun:    report.DryRun,
		StartedAt: report.StartedAt.Format(time.RFC3339),
		EndedAt:   report.EndedAt.Format(time.RFC3339),
		Regions:   make([]RegionSummary, 0, len(report.Regions)),
	}
	if runErr != nil {
		summary.Error = runErr.Error()
	}

	for _, region := range report.Regions {
		rs := RegionSummary{
			Region:             region.Region,
			NotEnabled:         region.NotEnabled,
			InstancesScanned:   region.InstancesScanned,
			ImagesCreated:      region.ImagesCreated,
			ImagesConsidered:   region.ImagesConsidered,
			ImagesDeregistered: region.ImagesDeregistered,
			ImagesSkipped:      region.ImagesSkipped,
			SnapshotsDeleted:   region.SnapshotsDeleted,
		}
		for _, itemErr := range region.Errors {
			rs.Errors = append(rs.Errors, itemErr.Error())
		}
		if region.Fatal != nil {
			rs.Fatal = region.Fatal.Error()
		}
		summary.Regions = append(summary.Regions, rs)
	}

	return summary
}
