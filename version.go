package cascade

// Version is the release version, overridden at build time.
var Version = "dev"
