package config

// DefaultRegions is the list of regions scanned when none are configured.
var DefaultRegions = []string{
	"us-east-1", "us-east-2", "us-west-1", "us-west-2",
	"ap-northeast-1", "ap-northeast-2", "ap-northeast-3", "ap-south-1",
	"ap-southeast-1", "ap-southeast-2", "ca-central-1",
	"eu-central-1", "eu-west-1", "eu-west-2", "eu-west-3",
}

var DefaultMarkerTags = []string{"backup", "Backup"}

const (
	DefaultRetentionDays = 7
	DefaultManagedTagKey = "FarleysBackupInstanceRotater"
	DefaultMaxAttempts   = 5
	DefaultSchedule      = "0 3 * * *"
	DefaultMetricsAddr   = ":9090"
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
)
