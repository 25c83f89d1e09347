package version

// Version is overridden at build time with -ldflags "-X actiongen/internal/shared/version.Version=...".
var Version = "dev"
