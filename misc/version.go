// Package misc keeps build time program identification.
package misc

// set by the linker: -X inliner/misc.version=... -X inliner/misc.gitHash=...
var (
	appName = "inliner"
	version = "dev"
	gitHash = "unknown"
)

func GetAppName() string {
	return appName
}

func GetVersion() string {
	return version
}

func GetGitHash() string {
	return gitHash
}
