package version

import (
	"fmt"
	"runtime"
)

// Set via -ldflags at build time.
var (
	version   = "dev"
	commitSHA = ""
	buildDate = ""
)

func Version() string {
	v := version
	if commitSHA != "" {
		v += "+" + commitSHA
	}
	if buildDate != "" {
		v += " (" + buildDate + ")"
	}
	return v
}

// UserAgent is sent with every engine request.
func UserAgent() string {
	return fmt.Sprintf("camundactl/%s (%s; %s)", version, runtime.GOOS, runtime.GOARCH)
}
