package backup

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/elC0mpa/ami-rotator/model"
	"github.com/elC0mpa/ami-rotator/service"
	"github.com/sirupsen/logrus"
)

type backupService struct {
	cfg    model.Config
	clock  clock.Clock
	logger *logrus.Entry
}

// BackupService creates tagged images of every backup-eligible instance in a region
type BackupService interface {
	Run(ctx context.Context, compute service.ComputeService, report *model.RegionReport) error
}
