package version

import (
	"fmt"
	"runtime"
)

// Set at build time with -ldflags "-X github.com/chainlaunch/asset-gateway/pkg/version.Version=...".
var (
	Version   = "dev"
	GitCommit = "none"
	BuildTime = "unknown"
)

type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
}

func Get() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
}

func (i Info) String() string {
	return fmt.Sprintf("Version: %s\nGit Commit: %s\nBuild Time: %s\nGo: %s\n", i.Version, i.GitCommit, i.BuildTime, i.GoVersion)
}
