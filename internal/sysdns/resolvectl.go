package sysdns

//
// The systemd-resolved strategy.
//

import (
	"strings"

	"github.com/SoroushMB/DNS-Master/internal/shellx"
)

// applyResolvectl configures the DNS of the default route's interface
// through systemd-resolved. The resolvectl binary is looked up before
// anything runs so a missing systemd-resolved installation is
// reported as unavailable rather than as a failure halfway through.
func (ap *Applier) applyResolvectl(address string) (string, error) {
	if _, err := shellx.NewArgv("resolvectl"); err != nil {
		return "", classify("resolvectl", err)
	}
	output, err := ap.command("ip", "route", "show", "default")
	if err != nil {
		return "", classify("resolvectl", err)
	}
	iface, found := defaultRouteInterface(string(output))
	if !found {
		return "", &Error{
			Kind:      InvocationFailed,
			Mechanism: "resolvectl",
			Detail:    "cannot determine the default route interface",
		}
	}
	if _, err := ap.command("resolvectl", "dns", iface, address); err != nil {
		return "", classify("resolvectl", err)
	}
	if _, err := ap.command("resolvectl", "flush-caches"); err != nil {
		// the DNS is already set at this point, failing to flush
		// the caches only delays when it becomes visible
		ap.logger.Warnf("sysdns: resolvectl flush-caches: %s", err.Error())
	}
	return "resolvectl", nil
}

// defaultRouteInterface extracts the interface name following the
// `dev` token in `ip route show default` output.
func defaultRouteInterface(output string) (string, bool) {
	fields := strings.Fields(output)
	for idx, field := range fields {
		if field == "dev" && idx+1 < len(fields) {
			return fields[idx+1], true
		}
	}
	return "", false
}
