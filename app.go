package main

import (
	"os"

	"github.com/elC0mpa/ami-rotator/cli"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.SetVersionInfo(version, commit, date)
	os.Exit(cli.Execute())
}
