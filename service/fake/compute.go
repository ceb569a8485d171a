// Package fake provides an in-memory service.ComputeService for tests.
package fake

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/elC0mpa/ami-rotator/model"
)

// Compute is an in-memory compute API. Images created through it become
// visible to ListOwnedImagesByTagKey once tagged, like the real provider.
type Compute struct {
	mu sync.Mutex

	Instances []model.Instance
	Images    map[string]*model.Image
	Snapshots map[string]bool

	// Injected failures
	ListInstancesErr  error
	ListImagesErr     error
	CreateImageErr    map[string]error // by instance id
	CreateTagsErr     map[string]error // by resource id
	DeregisterErr     map[string]error // by image id
	DeleteSnapshotErr map[string]error // by snapshot id

	// Call log, in order, e.g. "deregister ami-1", "delete snap-1"
	Calls []string

	// CreatedInputs records every CreateImage call
	CreatedInputs []model.CreateImageInput

	nextID int
}

// NewCompute returns an empty Compute
func NewCompute() *Compute {
	return &Compute{
		Images:            map[string]*model.Image{},
		Snapshots:         map[string]bool{},
		CreateImageErr:    map[string]error{},
		CreateTagsErr:     map[string]error{},
		DeregisterErr:     map[string]error{},
		DeleteSnapshotErr: map[string]error{},
	}
}

// AddImage registers an existing image and its snapshots
func (c *Compute) AddImage(image model.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stored := image
	c.Images[image.ID] = &stored
	for _, snapshotID := range image.SnapshotIDs {
		c.Snapshots[snapshotID] = true
	}
}

// Image returns a copy of the stored image
func (c *Compute) Image(id string) (model.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	image, ok := c.Images[id]
	if !ok {
		return model.Image{}, false
	}
	return *image, true
}

func (c *Compute) ListInstancesByTagKeys(_ context.Context, keys []string) ([]model.Instance, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls = append(c.Calls, "list instances")
	if c.ListInstancesErr != nil {
		return nil, c.ListInstancesErr
	}

	var out []model.Instance
	for _, instance := range c.Instances {
		if hasAnyKey(instance.Tags, keys) {
			out = append(out, instance)
		}
	}
	return out, nil
}

func (c *Compute) CreateImage(_ context.Context, input model.CreateImageInput) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls = append(c.Calls, "create image "+input.InstanceID)
	c.CreatedInputs = append(c.CreatedInputs, input)
	if err := c.CreateImageErr[input.InstanceID]; err != nil {
		return "", err
	}
	if input.DryRun {
		return "", nil
	}

	c.nextID++
	id := fmt.Sprintf("ami-%04d", c.nextID)
	snapshotID := fmt.Sprintf("snap-%04d", c.nextID)
	c.Images[id] = &model.Image{
		ID:          id,
		Name:        input.Name,
		Tags:        map[string]string{},
		SnapshotIDs: []string{snapshotID},
	}
	c.Snapshots[snapshotID] = true
	return id, nil
}

func (c *Compute) CreateTags(_ context.Context, resourceID string, tags map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls = append(c.Calls, "tag "+resourceID)
	if err := c.CreateTagsErr[resourceID]; err != nil {
		return err
	}

	image, ok := c.Images[resourceID]
	if !ok {
		return fmt.Errorf("resource %s not found", resourceID)
	}
	for key, value := range tags {
		if strings.HasPrefix(key, "aws:") {
			return fmt.Errorf("tag keys starting with 'aws:' are reserved")
		}
		image.Tags[key] = value
	}
	return nil
}

func (c *Compute) ListOwnedImagesByTagKey(_ context.Context, key string) ([]model.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls = append(c.Calls, "list images")
	if c.ListImagesErr != nil {
		return nil, c.ListImagesErr
	}

	ids := make([]string, 0, len(c.Images))
	for id := range c.Images {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []model.Image
	for _, id := range ids {
		image := c.Images[id]
		if _, ok := image.Tags[key]; ok {
			out = append(out, *image)
		}
	}
	return out, nil
}

func (c *Compute) DeregisterImage(_ context.Context, imageID string, dryRun bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls = append(c.Calls, "deregister "+imageID)
	if err := c.DeregisterErr[imageID]; err != nil {
		return err
	}
	if _, ok := c.Images[imageID]; !ok {
		return fmt.Errorf("image %s not found", imageID)
	}
	if !dryRun {
		delete(c.Images, imageID)
	}
	return nil
}

func (c *Compute) DeleteSnapshot(_ context.Context, snapshotID string, dryRun bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls = append(c.Calls, "delete "+snapshotID)
	if err := c.DeleteSnapshotErr[snapshotID]; err != nil {
		return err
	}
	if !c.Snapshots[snapshotID] {
		return fmt.Errorf("snapshot %s not found", snapshotID)
	}
	if !dryRun {
		delete(c.Snapshots, snapshotID)
	}
	return nil
}

func hasAnyKey(tags map[string]string, keys []string) bool {
	for _, key := range keys {
		if _, ok := tags[key]; ok {
			return true
		}
	}
	return false
}
