package main

// Set with -ldflags "-X main.Version=..." at build time.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
