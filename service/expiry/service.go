package expiry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/elC0mpa/ami-rotator/model"
	"github.com/elC0mpa/ami-rotator/service"
	"github.com/sirupsen/logrus"
)

func NewService(cfg model.Config, clk clock.Clock, logger *logrus.Entry) *expiryService {
	return &expiryService{
		cfg:    cfg,
		clock:  clk,
		logger: logger,
	}
}

func (s *expiryService) Run(ctx context.Context, compute service.ComputeService, report *model.RegionReport) error {
	log := s.logger.WithField("region", report.Region)
	log.Infof("Scanning for images with tag (%s)", s.cfg.ManagedTagKey)

	images, err := compute.ListOwnedImagesByTagKey(ctx, s.cfg.ManagedTagKey)
	if err != nil {
		if errors.Is(err, model.ErrRegionNotEnabled) {
			log.Info("Region not activated for this account, skipping expiry")
			report.NotEnabled = true
			return nil
		}
		return fmt.Errorf("failed to list images in %s: %w", report.Region, err)
	}

	today := Today(s.clock.Now())
	report.ImagesConsidered = len(images)

	for _, image := range images {
		imageLog := log.WithField("image", image.ID)

		deleteAfter, ok := image.Tags[model.TagDeleteAfter]
		if !ok {
			imageLog.Warn("Unable to find when to delete this image after, skipping")
			report.ImagesSkipped++
			continue
		}

		expired, err := IsExpired(deleteAfter, today)
		if err != nil {
			imageLog.WithError(err).Warnf("Invalid %s tag %q, skipping", model.TagDeleteAfter, deleteAfter)
			report.ImagesSkipped++
			continue
		}
		if !expired {
			imageLog.WithField("deleteAfter", deleteAfter).Debug("Image is too new, skipping")
			report.ImagesSkipped++
			continue
		}

		s.expireImage(ctx, compute, image, report, imageLog.WithField("deleteAfter", deleteAfter))
	}

	return nil
}

// expireImage deregisters the image and then deletes its snapshots. Failures
// are recorded and never stop the remaining deletions.
func (s *expiryService) expireImage(ctx context.Context, compute service.ComputeService, image model.Image, report *model.RegionReport, log *logrus.Entry) {
	log.Info("Deleting image")
	if err := compute.DeregisterImage(ctx, image.ID, s.cfg.DryRun); err != nil {
		log.WithError(err).Error("Unable to deregister image")
		report.RecordError(image.ID, "deregister", err)
	} else {
		report.ImagesDeregistered++
	}

	for _, snapshotID := range image.SnapshotIDs {
		snapshotLog := log.WithField("snapshot", snapshotID)
		snapshotLog.Info("Deleting snapshot")
		if err := compute.DeleteSnapshot(ctx, snapshotID, s.cfg.DryRun); err != nil {
			snapshotLog.WithError(err).Error("Unable to delete snapshot")
			report.RecordError(snapshotID, "delete snapshot", err)
			continue
		}
		report.SnapshotsDeleted++
	}
}

// Today returns the calendar date of now at midnight UTC.
func Today(now time.Time) time.Time {
	year, month, day := now.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// IsExpired reports whether today is strictly after the MM-DD-YYYY date.
func IsExpired(deleteAfter string, today time.Time) (bool, error) {
	deleteDate, err := time.Parse(model.DeleteAfterLayout, deleteAfter)
	if err != nil {
		return false, err
	}
	return today.After(deleteDate), nil
}
