package backup

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/elC0mpa/ami-rotator/model"
	"github.com/elC0mpa/ami-rotator/service"
	"github.com/sirupsen/logrus"
)

func NewService(cfg model.Config, clk clock.Clock, logger *logrus.Entry) *backupService {
	return &backupService{
		cfg:    cfg,
		clock:  clk,
		logger: logger,
	}
}

func (s *backupService) Run(ctx context.Context, compute service.ComputeService, report *model.RegionReport) error {
	log := s.logger.WithField("region", report.Region)
	log.Infof("Scanning for instances with tags (%s)", strings.Join(s.cfg.MarkerTags, ","))

	instances, err := compute.ListInstancesByTagKeys(ctx, s.cfg.MarkerTags)
	if err != nil {
		if errors.Is(err, model.ErrRegionNotEnabled) {
			log.Info("Region not activated for this account, skipping backups")
			report.NotEnabled = true
			return nil
		}
		return fmt.Errorf("failed to list instances in %s: %w", report.Region, err)
	}

	instances = withoutTerminated(instances)
	report.InstancesScanned = len(instances)
	log.Infof("Found %d instances to backup", len(instances))

	for _, instance := range instances {
		if err := s.backupInstance(ctx, compute, instance, log); err != nil {
			if !s.cfg.IsolateFailures {
				return err
			}
			log.WithError(err).WithField("instance", instance.ID).Error("Backup failed, continuing")
			report.RecordError(instance.ID, "backup", err)
			continue
		}
		report.ImagesCreated++
	}

	return nil
}

func (s *backupService) backupInstance(ctx context.Context, compute service.ComputeService, instance model.Instance, log *logrus.Entry) error {
	name := DisplayName(instance)
	days := RetentionDays(instance, s.cfg.DefaultRetentionDays)
	log = log.WithFields(logrus.Fields{
		"instance":  instance.ID,
		"name":      name,
		"retention": days,
	})

	now := s.clock.Now()
	imageID, err := compute.CreateImage(ctx, model.CreateImageInput{
		InstanceID:  instance.ID,
		Name:        ImageName(name, now),
		Description: ImageDescription(name, instance.ID),
		NoReboot:    true,
		DryRun:      s.cfg.DryRun,
	})
	if err != nil {
		return fmt.Errorf("failed to create image of %s: %w", instance.ID, err)
	}
	if s.cfg.DryRun {
		log.Info("Dry run: image would be created")
		return nil
	}

	deleteAfter := DeleteAfter(now, days)
	log = log.WithFields(logrus.Fields{"image": imageID, "deleteAfter": deleteAfter})
	log.Info("Created image")

	if err := compute.CreateTags(ctx, imageID, ImageTags(instance, deleteAfter, s.cfg.ManagedTagKey)); err != nil {
		return fmt.Errorf("failed to tag image %s of %s: %w", imageID, instance.ID, err)
	}

	return nil
}

func withoutTerminated(instances []model.Instance) []model.Instance {
	active := make([]model.Instance, 0, len(instances))
	for _, instance := range instances {
		if instance.State == model.InstanceStateTerminated {
			continue
		}
		active = append(active, instance)
	}
	return active
}
