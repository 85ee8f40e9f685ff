package version

// AppVersion is overridden at release time via -ldflags.
var AppVersion = "1.2.0"
