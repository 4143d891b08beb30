// SPDX-License-Identifier: MIT
//
// Package build exposes metadata injected at link time:
//
//	go build -ldflags "-X spectrum/pkg/build.buildName=spectrum -X spectrum/pkg/build.buildVersion=0.1.0 ..."
//
// Development builds carry no flags and report the defaults.
package build

import "fmt"

// Info describes a build.
type Info struct {
	Name    string
	Time    string
	Commit  string
	Version string
}

const defaultName = "spectrum"

var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = defaultInfo()
)

func defaultInfo() *Info {
	return &Info{
		Name:    defaultName,
		Time:    "unknown",
		Commit:  "unknown",
		Version: "dev",
	}
}

// Initialize validates and copies the linker variables into the build info.
// On error the development defaults stay in place.
func Initialize() error {
	if buildName == "" {
		return fmt.Errorf("BuildName is required")
	}
	if buildTime == "" {
		return fmt.Errorf("BuildTime is required")
	}
	if buildCommit == "" {
		return fmt.Errorf("BuildCommit is required")
	}
	if buildVersion == "" {
		return fmt.Errorf("BuildVersion is required")
	}

	buildFlags.Name = buildName
	buildFlags.Time = buildTime
	buildFlags.Commit = buildCommit
	buildFlags.Version = buildVersion
	return nil
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *Info {
	return buildFlags
}

// String formats the info for --version output.
func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", i.Name, i.Version, i.Commit, i.Time)
}
