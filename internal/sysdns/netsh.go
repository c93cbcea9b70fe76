package sysdns

//
// The Windows netsh strategy.
//

import "strings"

// listAdaptersScript asks powershell for the names of the network
// adapters that are up, one per line.
const listAdaptersScript = "Get-NetAdapter | Where-Object { $_.Status -eq 'Up' } | Select-Object -ExpandProperty Name"

// applyWindows configures the DNS of the first connected network
// adapter. There is no reliable up-front privilege check on Windows
// so the lack of elevation is classified from netsh's output.
func (ap *Applier) applyWindows(address string) (string, error) {
	output, err := ap.command("powershell", "-NoProfile", "-Command", listAdaptersScript)
	if err != nil {
		return "", classify("netsh", err)
	}
	iface, found := firstAdapterName(string(output))
	if !found {
		return "", &Error{
			Kind:      InvocationFailed,
			Mechanism: "netsh",
			Detail:    "no connected network adapter",
		}
	}
	if _, err := ap.command(
		"netsh", "interface", "ip", "set", "dns",
		"name="+iface, "source=static", "addr="+address); err != nil {
		return "", classify("netsh", err)
	}
	return "netsh", nil
}

// firstAdapterName returns the first nonempty line of the powershell
// adapter listing.
func firstAdapterName(output string) (string, bool) {
	for _, line := range strings.Split(output, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line, true
		}
	}
	return "", false
}
