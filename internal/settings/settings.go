// Package settings reads tunables from the environment with defaults
// suitable for interactive use. The dnsmaster binary blank-imports
// godotenv/autoload, so every key here can also live in a .env file.
package settings

import (
	"os"
	"strconv"
	"time"

	"github.com/apex/log"
)

// Defaults used when the corresponding environment key is unset.
const (
	// DefaultTestDomain is the domain resolved to measure latency.
	DefaultTestDomain = "www.google.com"

	// DefaultPayloadURL serves the throughput payload.
	DefaultPayloadURL = "https://speed.cloudflare.com/__down?bytes=1000000"

	// DefaultPayloadMaxBytes caps how much payload we read.
	DefaultPayloadMaxBytes = 1 << 20

	// DefaultTargetTimeout is the whole-target deadline.
	DefaultTargetTimeout = 7500 * time.Millisecond

	// DefaultQueryTimeout bounds a single DNS query.
	DefaultQueryTimeout = 2 * time.Second
)

// String returns the value of key or defaultValue when key is unset
// or empty.
func String(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// Int64 is like [String] for int64 values. Unparseable values log a
// debug message and fall back to the default.
func Int64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		log.Debugf("settings: cannot parse %s as int64: %s", key, err.Error())
		return defaultValue
	}
	return intValue
}

// Duration is like [String] for [time.Duration] values. Unparseable
// values log a debug message and fall back to the default.
func Duration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		log.Debugf("settings: cannot parse %s as duration: %s", key, err.Error())
		return defaultValue
	}
	return duration
}

// TestDomain returns the domain to resolve when measuring latency.
func TestDomain() string {
	return String("DNSMASTER_TEST_DOMAIN", DefaultTestDomain)
}

// PayloadURL returns the URL serving the throughput payload.
func PayloadURL() string {
	return String("DNSMASTER_PAYLOAD_URL", DefaultPayloadURL)
}

// PayloadMaxBytes returns the payload read cap in bytes.
func PayloadMaxBytes() int64 {
	return Int64("DNSMASTER_PAYLOAD_MAX", DefaultPayloadMaxBytes)
}

// TargetTimeout returns the per-target wall-clock deadline.
func TargetTimeout() time.Duration {
	return Duration("DNSMASTER_TARGET_TIMEOUT", DefaultTargetTimeout)
}

// QueryTimeout returns the single DNS query deadline.
func QueryTimeout() time.Duration {
	return Duration("DNSMASTER_QUERY_TIMEOUT", DefaultQueryTimeout)
}

// ApplyCommand returns the custom command line for applying the
// system DNS, empty when the platform strategy should be used. The
// resolver address is appended as the final argument.
func ApplyCommand() string {
	return String("DNSMASTER_APPLY_CMD", "")
}
