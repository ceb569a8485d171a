package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/elC0mpa/ami-rotator/model"
	"github.com/elC0mpa/ami-rotator/service"
	"github.com/elC0mpa/ami-rotator/service/backup"
	"github.com/elC0mpa/ami-rotator/service/expiry"
	"github.com/elC0mpa/ami-rotator/service/fake"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubIdentity struct {
	err error
}

func (s stubIdentity) GetAccountInfo(context.Context) (*model.AccountInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.AccountInfo{Provider: "aws", AccountID: "123456789012"}, nil
}

func testConfig(regions ...string) model.Config {
	return model.Config{
		Regions:              regions,
		MarkerTags:           []string{"backup", "Backup"},
		DefaultRetentionDays: 7,
		ManagedTagKey:        "Rotator",
	}
}

func factoryFor(computes map[string]*fake.Compute, visited *[]string) service.ComputeFactory {
	return func(_ context.Context, region string) (service.ComputeService, error) {
		*visited = append(*visited, region)
		compute, ok := computes[region]
		if !ok {
			return nil, fmt.Errorf("unknown region %s", region)
		}
		return compute, nil
	}
}

func newTestService(cfg model.Config, clk clock.Clock, identity service.IdentityService, factory service.ComputeFactory) *orchestratorService {
	logger, _ := logtest.NewNullLogger()
	return NewService(cfg, clk, logrus.NewEntry(logger), identity, factory)
}

func mockClock(t time.Time) *clock.Mock {
	clk := clock.NewMock()
	clk.Set(t)
	return clk
}

func TestOrchestrate_RunsRegionsInOrder(t *testing.T) {
	t.Parallel()

	east := fake.NewCompute()
	east.Instances = []model.Instance{{ID: "i-abc123", State: "running", Tags: map[string]string{"backup": "true", "Name": "web1"}}}
	west := fake.NewCompute()
	west.AddImage(model.Image{ID: "ami-old", Tags: map[string]string{"Rotator": "true", "DeleteAfter": "12-31-2023"}, SnapshotIDs: []string{"snap-111"}})

	var visited []string
	svc := newTestService(
		testConfig("us-east-1", "us-west-2"),
		mockClock(time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC)),
		stubIdentity{},
		factoryFor(map[string]*fake.Compute{"us-east-1": east, "us-west-2": west}, &visited),
	)

	report, err := svc.Orchestrate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"us-east-1", "us-west-2"}, visited)
	assert.Equal(t, "123456789012", report.AccountID)
	require.Len(t, report.Regions, 2)
	assert.Equal(t, 1, report.Regions[0].ImagesCreated)
	assert.Equal(t, 1, report.Regions[1].ImagesDeregistered)
	assert.Equal(t, 1, report.Regions[1].SnapshotsDeleted)

	// backup runs before expiry within a region
	assert.Equal(t, []string{"list instances", "create image i-abc123", "tag ami-0001", "list images"}, east.Calls)
	assert.Equal(t, []string{"list instances", "list images", "deregister ami-old", "delete snap-111"}, west.Calls)

	image, ok := east.Image("ami-0001")
	require.True(t, ok)
	assert.Equal(t, "web1-backup-2024-01-01-03-00-00", image.Name)
	assert.Equal(t, "01-08-2024", image.Tags["DeleteAfter"])
	assert.Equal(t, "i-abc123", image.Tags["OriginalInstanceID"])
	assert.Equal(t, "true", image.Tags["Rotator"])
}

func TestOrchestrate_NotEnabledRegionStillRunsExpiry(t *testing.T) {
	t.Parallel()

	compute := fake.NewCompute()
	compute.ListInstancesErr = fmt.Errorf("failed to describe instances: %w", model.ErrRegionNotEnabled)
	compute.AddImage(model.Image{ID: "ami-old", Tags: map[string]string{"Rotator": "true", "DeleteAfter": "12-31-2023"}})

	var visited []string
	svc := newTestService(
		testConfig("af-south-1", "us-east-1"),
		mockClock(time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC)),
		nil,
		factoryFor(map[string]*fake.Compute{"af-south-1": compute, "us-east-1": fake.NewCompute()}, &visited),
	)

	report, err := svc.Orchestrate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"af-south-1", "us-east-1"}, visited)
	assert.True(t, report.Regions[0].NotEnabled)
	assert.Equal(t, 1, report.Regions[0].ImagesDeregistered)
	assert.Contains(t, compute.Calls, "list images")
}

func TestOrchestrate_FatalErrorAbortsRun(t *testing.T) {
	t.Parallel()

	boom := errors.New("UnauthorizedOperation")
	broken := fake.NewCompute()
	broken.ListInstancesErr = boom

	var visited []string
	svc := newTestService(
		testConfig("us-east-1", "us-west-2"),
		mockClock(time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC)),
		nil,
		factoryFor(map[string]*fake.Compute{"us-east-1": broken, "us-west-2": fake.NewCompute()}, &visited),
	)

	report, err := svc.Orchestrate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"us-east-1"}, visited)
	require.Len(t, report.Regions, 1)
	assert.ErrorIs(t, report.Regions[0].Fatal, boom)
	assert.Equal(t, []string{"list instances"}, broken.Calls, "expiry is not reached")
}

func TestOrchestrate_IsolateFailuresContinues(t *testing.T) {
	t.Parallel()

	cfg := testConfig("us-east-1", "eu-west-1", "us-west-2")
	cfg.IsolateFailures = true

	broken := fake.NewCompute()
	broken.ListImagesErr = errors.New("throttled")

	var visited []string
	svc := newTestService(
		cfg,
		mockClock(time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC)),
		stubIdentity{err: errors.New("no identity")},
		factoryFor(map[string]*fake.Compute{"us-east-1": broken, "us-west-2": fake.NewCompute()}, &visited),
	)

	report, err := svc.Orchestrate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"us-east-1", "eu-west-1", "us-west-2"}, visited)
	require.Len(t, report.Regions, 3)
	assert.Error(t, report.Regions[0].Fatal)
	assert.Error(t, report.Regions[1].Fatal, "unknown region fails at client creation")
	assert.NoError(t, report.Regions[2].Fatal)
	assert.Empty(t, report.AccountID)
}

func TestOrchestrate_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var visited []string
	svc := newTestService(
		testConfig("us-east-1"),
		mockClock(time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC)),
		nil,
		factoryFor(map[string]*fake.Compute{"us-east-1": fake.NewCompute()}, &visited),
	)

	_, err := svc.Orchestrate(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, visited)
}

func TestOrchestrate_RoundTrip(t *testing.T) {
	t.Parallel()

	compute := fake.NewCompute()
	compute.Instances = []model.Instance{{ID: "i-abc123", State: "running", Tags: map[string]string{"Backup": "", "Retention": "2"}}}

	clk := mockClock(time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC))
	var visited []string
	svc := newTestService(testConfig("us-east-1"), clk, nil, factoryFor(map[string]*fake.Compute{"us-east-1": compute}, &visited))

	_, err := svc.Orchestrate(context.Background())
	require.NoError(t, err)

	// Every created image is found again by the expiry listing with a parseable date
	images, err := compute.ListOwnedImagesByTagKey(context.Background(), "Rotator")
	require.NoError(t, err)
	require.Len(t, images, 1)
	_, err = expiry.IsExpired(images[0].Tags["DeleteAfter"], expiry.Today(clk.Now()))
	require.NoError(t, err)

	// On the delete-after date the image is kept
	clk.Add(2 * 24 * time.Hour)
	_, err = svc.Orchestrate(context.Background())
	require.NoError(t, err)
	_, ok := compute.Image("ami-0001")
	assert.True(t, ok)

	// The day after it is gone along with its snapshot
	clk.Add(24 * time.Hour)
	report, err := svc.Orchestrate(context.Background())
	require.NoError(t, err)
	_, ok = compute.Image("ami-0001")
	assert.False(t, ok)
	assert.False(t, compute.Snapshots["snap-0001"])
	assert.Equal(t, 1, report.Regions[0].ImagesDeregistered)
}

var (
	_ backup.BackupService = (*fakeProcedure)(nil)
	_ expiry.ExpiryService = (*fakeProcedure)(nil)
)

type fakeProcedure struct {
	name  string
	calls *[]string
}

func (f *fakeProcedure) Run(_ context.Context, _ service.ComputeService, report *model.RegionReport) error {
	*f.calls = append(*f.calls, f.name+" "+report.Region)
	return nil
}

func TestOrchestrate_ProcedureOrder(t *testing.T) {
	t.Parallel()

	var calls, visited []string
	svc := newTestService(
		testConfig("us-east-1", "us-east-2"),
		mockClock(time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC)),
		nil,
		factoryFor(map[string]*fake.Compute{"us-east-1": fake.NewCompute(), "us-east-2": fake.NewCompute()}, &visited),
	)
	svc.backupService = &fakeProcedure{name: "backup", calls: &calls}
	svc.expiryService = &fakeProcedure{name: "expiry", calls: &calls}

	_, err := svc.Orchestrate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"backup us-east-1", "expiry us-east-1", "backup us-east-2", "expiry us-east-2"}, calls)
}
