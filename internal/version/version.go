package version

import (
	"runtime"
	"time"
)

// Overridden at build time with -ldflags "-X github.com/MrSnakeDoc/opphub/internal/version.Version=...".
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = time.Now().Format(time.RFC3339)
	GoVersion = runtime.Version()
)

// UserAgent is sent on every outbound request to the job APIs.
func UserAgent() string {
	return "opphub/" + Version + " (+https://github.com/MrSnakeDoc/opphub)"
}
