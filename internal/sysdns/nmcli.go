package sysdns

//
// The NetworkManager strategy.
//

import "strings"

// applyNmcli configures the DNS of the first active non-loopback
// NetworkManager connection. The DNS server and the flag ignoring
// DHCP-provided servers are set with a single modify command, then
// the connection is bounced to make the change live.
func (ap *Applier) applyNmcli(address string) (string, error) {
	output, err := ap.command("nmcli", "-t", "-f", "NAME,TYPE", "connection", "show", "--active")
	if err != nil {
		return "", classify("nmcli", err)
	}
	name, found := firstNonLoopbackConnection(string(output))
	if !found {
		return "", &Error{
			Kind:      InvocationFailed,
			Mechanism: "nmcli",
			Detail:    "no active network connection",
		}
	}
	if _, err := ap.command(
		"nmcli", "connection", "modify", name,
		"ipv4.dns", address, "ipv4.ignore-auto-dns", "yes"); err != nil {
		return "", classify("nmcli", err)
	}
	if _, err := ap.command("nmcli", "connection", "up", name); err != nil {
		return "", classify("nmcli", err)
	}
	return "nmcli", nil
}

// firstNonLoopbackConnection extracts the first connection name from
// the terse `NAME:TYPE` listing, skipping loopback entries.
func firstNonLoopbackConnection(output string) (string, bool) {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.Contains(line, "loopback") {
			continue
		}
		name, _, _ := strings.Cut(line, ":")
		if name != "" {
			return name, true
		}
	}
	return "", false
}
