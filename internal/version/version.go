package version

// Version is the current solaudit release version
var Version = "0.3.0"
