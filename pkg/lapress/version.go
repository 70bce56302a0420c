package lapress

// Version is the release of the lapress module. Builds override it with
// -ldflags "-X github.com/mesh-intelligence/lapress/pkg/lapress.Version=...".
var Version = "0.1.0-dev"
