package config

// Version is the kbequiv binary version.
// Set at build time via: -ldflags "-X github.com/persistorai/kbequiv/internal/config.Version=<tag>"
// Defaults to "dev" when built without ldflags.
var Version = "dev"
