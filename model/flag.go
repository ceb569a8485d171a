package model

type Flags struct {
	ConfigPath string

	// Overrides, applied on top of the config file when set
	Regions         []string
	Profile         string
	DryRun          *bool // nil when not given
	IsolateFailures *bool // nil when not given
	LogLevel        string
	LogFormat       string

	// Serve mode
	Schedule    string
	MetricsAddr string
}
