// Package version contains version information.
package version

// Version is the dnsmaster software version.
const Version = "0.1.0"
