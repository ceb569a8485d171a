package orchestrator

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/elC0mpa/ami-rotator/model"
	"github.com/elC0mpa/ami-rotator/service"
	"github.com/elC0mpa/ami-rotator/service/backup"
	"github.com/elC0mpa/ami-rotator/service/expiry"
	"github.com/sirupsen/logrus"
)

type orchestratorService struct {
	cfg             model.Config
	clock           clock.Clock
	logger          *logrus.Entry
	identityService service.IdentityService
	computeFactory  service.ComputeFactory
	backupService   backup.BackupService
	expiryService   expiry.ExpiryService
}

type OrchestratorService interface {
	Orchestrate(ctx context.Context) (*model.RunReport, error)
}
