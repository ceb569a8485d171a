package backup

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/elC0mpa/ami-rotator/model"
)

const (
	maxImageNameLength        = 128
	maxImageDescriptionLength = 255
)

// AMI names may only contain letters, digits and ()[] ./-'@_
var invalidImageNameChars = regexp.MustCompile(`[^a-zA-Z0-9()\[\] ./\-'@_]`)

// DisplayName returns the Name tag of the instance, or its id.
func DisplayName(instance model.Instance) string {
	if name, ok := instance.Tags[model.TagName]; ok && name != "" {
		return name
	}
	return instance.ID
}

// RetentionDays returns the Retention tag as a day count, or defaultDays when
// the tag is missing, not an integer or negative.
func RetentionDays(instance model.Instance, defaultDays int) int {
	value, ok := instance.Tags[model.TagRetention]
	if !ok {
		return defaultDays
	}
	days, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || days < 0 {
		return defaultDays
	}
	return days
}

// ImageName builds {displayName}-backup-{YYYY-MM-DD-HH-MM-SS}.
func ImageName(displayName string, now time.Time) string {
	suffix := "-backup-" + now.Format(model.ImageTimestampLayout)

	name := invalidImageNameChars.ReplaceAllString(displayName, "-")
	if limit := maxImageNameLength - len(suffix); len(name) > limit {
		name = name[:limit]
	}
	return name + suffix
}

// ImageDescription is the human readable description set on the image. The
// display name is shortened so the result stays within 255 characters.
func ImageDescription(displayName, instanceID string) string {
	prefix, suffix := "Automatic Daily Backup of ", " from "+instanceID

	name := []rune(displayName)
	if limit := maxImageDescriptionLength - utf8.RuneCountInString(prefix+suffix); len(name) > limit {
		name = name[:max(limit, 0)]
	}
	return prefix + string(name) + suffix
}

// DeleteAfter returns the calendar date retentionDays after now, as MM-DD-YYYY.
func DeleteAfter(now time.Time, retentionDays int) string {
	year, month, day := now.Date()
	return time.Date(year, month, day+retentionDays, 0, 0, 0, 0, now.Location()).Format(model.DeleteAfterLayout)
}

// ImageTags copies the instance tags and adds the rotation tags. Reserved
// aws: keys cannot be set by callers and are left out.
func ImageTags(instance model.Instance, deleteAfter, managedTagKey string) map[string]string {
	tags := make(map[string]string, len(instance.Tags)+3)
	for key, value := range instance.Tags {
		if strings.HasPrefix(key, "aws:") {
			continue
		}
		tags[key] = value
	}
	tags[model.TagDeleteAfter] = deleteAfter
	tags[model.TagOriginalInstanceID] = instance.ID
	tags[managedTagKey] = model.ManagedTagValue
	return tags
}
