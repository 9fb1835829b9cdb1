package types

// Version is overwritten at build time via -ldflags
var Version = "dev"

// ServiceName is the name reported by health checks and logs
const ServiceName = "reflow"
