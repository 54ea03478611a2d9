// Package version holds the build version of the hianime binary
package version

import (
	"fmt"
	"io"
	"runtime"
)

// Version is overridden at build time with -ldflags "-X ...version.Version=..."
var Version = "0.1.0"

// Revision is the git commit the binary was built from
var Revision = "unknown"

// String returns the one-line version banner
func String() string {
	return fmt.Sprintf("hianime v%s (%s) %s/%s", Version, Revision, runtime.GOOS, runtime.GOARCH)
}

// ShowVersion prints the version banner to w
func ShowVersion(w io.Writer) {
	_, _ = fmt.Fprintln(w, String())
}
