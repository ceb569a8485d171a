package backup

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/elC0mpa/ami-rotator/model"
	"github.com/elC0mpa/ami-rotator/service/fake"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() model.Config {
	return model.Config{
		Regions:              []string{"us-east-1"},
		MarkerTags:           []string{"backup", "Backup"},
		DefaultRetentionDays: 7,
		ManagedTagKey:        "Rotator",
	}
}

func newTestService(t *testing.T, cfg model.Config) (*backupService, *logtest.Hook) {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	clk := clock.NewMock()
	clk.Set(time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC))
	return NewService(cfg, clk, logrus.NewEntry(logger)), hook
}

func TestRun_CreatesTaggedImage(t *testing.T) {
	t.Parallel()

	compute := fake.NewCompute()
	compute.Instances = []model.Instance{
		{ID: "i-abc123", State: "running", Tags: map[string]string{"backup": "true", "Name": "web1"}},
	}

	svc, _ := newTestService(t, testConfig())
	report := &model.RegionReport{Region: "us-east-1"}

	require.NoError(t, svc.Run(context.Background(), compute, report))
	assert.Equal(t, 1, report.InstancesScanned)
	assert.Equal(t, 1, report.ImagesCreated)

	require.Len(t, compute.CreatedInputs, 1)
	input := compute.CreatedInputs[0]
	assert.Equal(t, "i-abc123", input.InstanceID)
	assert.Equal(t, "web1-backup-2024-01-01-03-00-00", input.Name)
	assert.Equal(t, "Automatic Daily Backup of web1 from i-abc123", input.Description)
	assert.True(t, input.NoReboot)
	assert.False(t, input.DryRun)

	image, ok := compute.Image("ami-0001")
	require.True(t, ok)
	assert.Equal(t, map[string]string{
		"backup":             "true",
		"Name":               "web1",
		"DeleteAfter":        "01-08-2024",
		"OriginalInstanceID": "i-abc123",
		"Rotator":            "true",
	}, image.Tags)
}

func TestRun_RetentionTag(t *testing.T) {
	t.Parallel()

	compute := fake.NewCompute()
	compute.Instances = []model.Instance{
		{ID: "i-1", State: "running", Tags: map[string]string{"Backup": "", "Retention": "14"}},
		{ID: "i-2", State: "stopped", Tags: map[string]string{"backup": "x", "Retention": "soon"}},
	}

	svc, _ := newTestService(t, testConfig())
	require.NoError(t, svc.Run(context.Background(), compute, &model.RegionReport{Region: "us-east-1"}))

	first, ok := compute.Image("ami-0001")
	require.True(t, ok)
	assert.Equal(t, "01-15-2024", first.Tags["DeleteAfter"])
	assert.Equal(t, "i-1-backup-2024-01-01-03-00-00", first.Name)

	second, ok := compute.Image("ami-0002")
	require.True(t, ok)
	assert.Equal(t, "01-08-2024", second.Tags["DeleteAfter"])
}

func TestRun_SkipsUntaggedAndTerminated(t *testing.T) {
	t.Parallel()

	compute := fake.NewCompute()
	compute.Instances = []model.Instance{
		{ID: "i-untagged", State: "running", Tags: map[string]string{"Name": "db"}},
		{ID: "i-terminated", State: "terminated", Tags: map[string]string{"backup": "true"}},
		{ID: "i-ok", State: "running", Tags: map[string]string{"Backup": "true"}},
	}

	svc, _ := newTestService(t, testConfig())
	report := &model.RegionReport{Region: "us-east-1"}
	require.NoError(t, svc.Run(context.Background(), compute, report))

	require.Len(t, compute.CreatedInputs, 1)
	assert.Equal(t, "i-ok", compute.CreatedInputs[0].InstanceID)
	assert.Equal(t, 1, report.InstancesScanned)
}

func TestRun_RegionNotEnabled(t *testing.T) {
	t.Parallel()

	compute := fake.NewCompute()
	compute.ListInstancesErr = fmt.Errorf("failed to describe instances: %w", model.ErrRegionNotEnabled)

	svc, hook := newTestService(t, testConfig())
	report := &model.RegionReport{Region: "ap-east-1"}

	require.NoError(t, svc.Run(context.Background(), compute, report))
	assert.True(t, report.NotEnabled)
	assert.Empty(t, compute.CreatedInputs)
	assert.Equal(t, "Region not activated for this account, skipping backups", hook.LastEntry().Message)
}

func TestRun_ListFailureIsFatal(t *testing.T) {
	t.Parallel()

	boom := errors.New("access denied")
	compute := fake.NewCompute()
	compute.ListInstancesErr = boom

	svc, _ := newTestService(t, testConfig())
	report := &model.RegionReport{Region: "us-east-1"}

	err := svc.Run(context.Background(), compute, report)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.False(t, report.NotEnabled)
}

func TestRun_CreateFailureAbortsByDefault(t *testing.T) {
	t.Parallel()

	compute := fake.NewCompute()
	compute.Instances = []model.Instance{
		{ID: "i-1", State: "running", Tags: map[string]string{"backup": "true"}},
		{ID: "i-2", State: "running", Tags: map[string]string{"backup": "true"}},
	}
	compute.CreateImageErr["i-1"] = errors.New("quota exceeded")

	svc, _ := newTestService(t, testConfig())
	err := svc.Run(context.Background(), compute, &model.RegionReport{Region: "us-east-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "i-1")
	assert.Len(t, compute.CreatedInputs, 1, "i-2 must not be attempted")
}

func TestRun_IsolateFailures(t *testing.T) {
	t.Parallel()

	compute := fake.NewCompute()
	compute.Instances = []model.Instance{
		{ID: "i-1", State: "running", Tags: map[string]string{"backup": "true"}},
		{ID: "i-2", State: "running", Tags: map[string]string{"backup": "true"}},
	}
	compute.CreateImageErr["i-1"] = errors.New("quota exceeded")

	cfg := testConfig()
	cfg.IsolateFailures = true
	svc, _ := newTestService(t, cfg)
	report := &model.RegionReport{Region: "us-east-1"}

	require.NoError(t, svc.Run(context.Background(), compute, report))
	assert.Equal(t, 1, report.ImagesCreated)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "i-1", report.Errors[0].Resource)
	assert.Len(t, compute.CreatedInputs, 2)
}

func TestRun_TagFailureLeavesImage(t *testing.T) {
	t.Parallel()

	compute := fake.NewCompute()
	compute.Instances = []model.Instance{
		{ID: "i-1", State: "running", Tags: map[string]string{"backup": "true"}},
	}
	compute.CreateTagsErr["ami-0001"] = errors.New("throttled")

	svc, _ := newTestService(t, testConfig())
	err := svc.Run(context.Background(), compute, &model.RegionReport{Region: "us-east-1"})
	require.Error(t, err)

	image, ok := compute.Image("ami-0001")
	require.True(t, ok, "image is not rolled back")
	assert.Empty(t, image.Tags)
}

func TestRun_DryRun(t *testing.T) {
	t.Parallel()

	compute := fake.NewCompute()
	compute.Instances = []model.Instance{
		{ID: "i-1", State: "running", Tags: map[string]string{"backup": "true"}},
	}

	cfg := testConfig()
	cfg.DryRun = true
	svc, _ := newTestService(t, cfg)

	require.NoError(t, svc.Run(context.Background(), compute, &model.RegionReport{Region: "us-east-1"}))
	require.Len(t, compute.CreatedInputs, 1)
	assert.True(t, compute.CreatedInputs[0].DryRun)
	assert.Empty(t, compute.Images)
	assert.Equal(t, []string{"list instances", "create image i-1"}, compute.Calls)
}
