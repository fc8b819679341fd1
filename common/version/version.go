package version

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/sirupsen/logrus"
)

var GitCommit string
var Version string

func SetDefaults() {
	build, infoOk := debug.ReadBuildInfo()

	if GitCommit == "" {
		GitCommit = ".dev"
		if infoOk {
			for _, setting := range build.Settings {
				if setting.Key == "vcs.revision" {
					GitCommit = setting.Value
					break
				}
			}
		}
	}

	if Version == "" {
		Version = "unknown"
	}
}

func Print(usingLogger bool) {
	SetDefaults()

	if usingLogger {
		logrus.Info("Version: " + Version)
		logrus.Info("Commit: " + GitCommit)
	} else {
		fmt.Println("Version: " + Version)
		fmt.Println("Commit: " + GitCommit)
	}
}

// UserAgent appends the version to the given product name, unless it already carries one.
func UserAgent(product string) string {
	SetDefaults()
	if product == "" {
		product = "link-previewer"
	}
	if strings.Contains(product, "/") {
		return product
	}
	return product + "/" + Version
}
