package observability

// Binary versioning for logs and the archive creator record.
// Values are overwritten via -ldflags during build.
var (
	Version = "dev"  // release version
	Commit  = "none" // short commit
	Date    = ""     // ISO8601 UTC build time
)
