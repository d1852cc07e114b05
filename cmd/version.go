package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// RunVersion prints build information.
func RunVersion() {
	fmt.Printf("parapet %s (%s, %s/%s)\n", Version, goVersion(), runtime.GOOS, runtime.GOARCH)
}

func goVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.GoVersion
	}
	return runtime.Version()
}
