// Package sysdns changes the operating system's DNS configuration to
// use a given resolver. Each platform has its own strategy built on
// the tools the platform ships: NetworkManager or systemd-resolved on
// Linux, networksetup on macOS, netsh on Windows. A custom command
// set through the DNSMASTER_APPLY_CMD environment variable replaces
// platform dispatch entirely.
//
// Strategies resolve their whole command plan (which connection,
// service, or interface, and which binary) before running the first
// mutating command, so a failure never leaves the configuration half
// changed.
package sysdns

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/SoroushMB/DNS-Master/internal/model"
	"github.com/SoroushMB/DNS-Master/internal/platform"
	"github.com/SoroushMB/DNS-Master/internal/settings"
	"github.com/SoroushMB/DNS-Master/internal/shellx"
	"golang.org/x/sys/execabs"
)

// ErrorKind classifies why applying the DNS failed.
type ErrorKind string

const (
	// MechanismUnavailable means the required tool is not installed
	// or the platform has no strategy at all.
	MechanismUnavailable = ErrorKind("mechanism unavailable")

	// PermissionDenied means the caller lacks the privileges the
	// mechanism requires.
	PermissionDenied = ErrorKind("permission denied")

	// InvocationFailed means the tool ran and failed.
	InvocationFailed = ErrorKind("invocation failed")
)

// Error is the structured failure returned by [*Applier.Apply].
type Error struct {
	// Kind classifies the failure.
	Kind ErrorKind

	// Mechanism names the strategy that failed.
	Mechanism string

	// Detail optionally carries the tool's one-line explanation.
	Detail string
}

var _ error = &Error{}

// Error implements error.
func (e *Error) Error() string {
	s := fmt.Sprintf("sysdns: %s: %s", e.Mechanism, e.Kind)
	if e.Detail != "" {
		s += ": " + e.Detail
	}
	return s
}

// Applier applies a resolver address to the system configuration.
// The zero value is invalid; use [New] or [NewWithPlatform].
type Applier struct {
	// geteuid obtains the effective user ID and is a hook for
	// testing the privilege pre-check.
	geteuid func() int

	// logger is the logger to use.
	logger model.Logger

	// platform is the platform whose strategy we use.
	platform string
}

// New creates an [*Applier] for the current platform.
func New(logger model.Logger) *Applier {
	return NewWithPlatform(logger, platform.Name())
}

// NewWithPlatform creates an [*Applier] using the strategy for the
// given platform name ("linux", "macos", "windows").
func NewWithPlatform(logger model.Logger, platformName string) *Applier {
	return &Applier{
		geteuid:  os.Geteuid,
		logger:   model.ValidLoggerOrDefault(logger),
		platform: platformName,
	}
}

// Apply sets the system DNS to the given resolver address, which must
// be a valid IP address in string form. It returns the name of the
// mechanism that performed the change. On failure the returned error
// is an [*Error] carrying the failure taxonomy.
func (ap *Applier) Apply(ctx context.Context, address string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	mechanism, err := ap.dispatch(address)
	ap.logger.Infof("sysdns: apply %s... %s", address, model.ErrorToStringOrOK(err))
	return mechanism, err
}

// dispatch selects and runs the strategy for the configured platform,
// unless a custom command overrides platform dispatch entirely.
func (ap *Applier) dispatch(address string) (string, error) {
	if cmdline := settings.ApplyCommand(); cmdline != "" {
		return ap.applyCustom(cmdline, address)
	}
	switch ap.platform {
	case "linux":
		return ap.applyLinux(address)
	case "macos":
		return ap.applyMacOS(address)
	case "windows":
		return ap.applyWindows(address)
	default:
		return "", &Error{
			Kind:      MechanismUnavailable,
			Mechanism: ap.platform,
			Detail:    "no DNS strategy for this platform",
		}
	}
}

// applyLinux tries NetworkManager first and falls back to
// systemd-resolved when nmcli is missing or fails.
func (ap *Applier) applyLinux(address string) (string, error) {
	mechanism, nmcliErr := ap.applyNmcli(address)
	if nmcliErr == nil {
		return mechanism, nil
	}
	ap.logger.Warnf("%s; falling back to resolvectl", nmcliErr.Error())
	mechanism, resolvectlErr := ap.applyResolvectl(address)
	if resolvectlErr == nil {
		return mechanism, nil
	}
	if isUnavailable(nmcliErr) && isUnavailable(resolvectlErr) {
		return "", &Error{
			Kind:      MechanismUnavailable,
			Mechanism: "nmcli, resolvectl",
			Detail:    "install NetworkManager or systemd-resolved",
		}
	}
	if isUnavailable(resolvectlErr) {
		return "", nmcliErr
	}
	return "", resolvectlErr
}

// isUnavailable tells whether err is an [*Error] with the
// [MechanismUnavailable] kind.
func isUnavailable(err error) bool {
	var applyErr *Error
	return errors.As(err, &applyErr) && applyErr.Kind == MechanismUnavailable
}

// command runs the given command logging its command line and
// capturing both output streams, so that a failure's stderr is
// available for classification.
func (ap *Applier) command(command string, args ...string) ([]byte, error) {
	argv, err := shellx.NewArgv(command, args...)
	if err != nil {
		return nil, err
	}
	config := &shellx.Config{Logger: ap.logger}
	return shellx.OutputEx(config, argv, &shellx.Envp{})
}

// permissionPhrases are the strings the platform tools print when the
// caller lacks privileges, lowercased.
var permissionPhrases = []string{
	"permission denied",
	"access is denied",
	"not authorized",
	"requires elevation",
	"insufficient privileges",
	"operation not permitted",
	"must be run as root",
}

// classify maps an error from running a tool to an [*Error] for the
// given mechanism.
func classify(mechanism string, err error) *Error {
	if errors.Is(err, execabs.ErrNotFound) {
		return &Error{
			Kind:      MechanismUnavailable,
			Mechanism: mechanism,
			Detail:    err.Error(),
		}
	}
	var exitErr *execabs.ExitError
	if errors.As(err, &exitErr) {
		detail := lastNonemptyLine(string(exitErr.Stderr))
		kind := InvocationFailed
		lower := strings.ToLower(string(exitErr.Stderr))
		for _, phrase := range permissionPhrases {
			if strings.Contains(lower, phrase) {
				kind = PermissionDenied
				break
			}
		}
		if detail == "" {
			detail = err.Error()
		}
		return &Error{Kind: kind, Mechanism: mechanism, Detail: detail}
	}
	return &Error{Kind: InvocationFailed, Mechanism: mechanism, Detail: err.Error()}
}

// lastNonemptyLine returns the last line of text containing anything
// beyond whitespace, or the empty string.
func lastNonemptyLine(text string) string {
	lines := strings.Split(text, "\n")
	for idx := len(lines) - 1; idx >= 0; idx-- {
		if line := strings.TrimSpace(lines[idx]); line != "" {
			return line
		}
	}
	return ""
}
