package sysdns

//
// The macOS networksetup strategy.
//

import "strings"

// applyMacOS configures the DNS of the first active network service,
// the one whose info reports an IP address. Changing DNS servers with
// networksetup requires root, which we check before running anything.
func (ap *Applier) applyMacOS(address string) (string, error) {
	if ap.geteuid() != 0 {
		return "", &Error{
			Kind:      PermissionDenied,
			Mechanism: "networksetup",
			Detail:    "changing the system DNS requires root, retry with sudo",
		}
	}
	output, err := ap.command("networksetup", "-listallnetworkservices")
	if err != nil {
		return "", classify("networksetup", err)
	}
	service, found := ap.activeNetworkService(enabledNetworkServices(string(output)))
	if !found {
		return "", &Error{
			Kind:      InvocationFailed,
			Mechanism: "networksetup",
			Detail:    "no network service with an IP address",
		}
	}
	if _, err := ap.command("networksetup", "-setdnsservers", service, address); err != nil {
		return "", classify("networksetup", err)
	}
	return "networksetup", nil
}

// enabledNetworkServices parses the -listallnetworkservices output,
// dropping the leading banner line and the services disabled with a
// `*` prefix.
func enabledNetworkServices(output string) []string {
	lines := strings.Split(output, "\n")
	if len(lines) > 0 {
		lines = lines[1:]
	}
	var services []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "*") {
			continue
		}
		services = append(services, line)
	}
	return services
}

// activeNetworkService returns the first service whose -getinfo
// output contains an IP address line, meaning it is the one actually
// carrying traffic.
func (ap *Applier) activeNetworkService(services []string) (string, bool) {
	for _, service := range services {
		info, err := ap.command("networksetup", "-getinfo", service)
		if err != nil {
			continue
		}
		if strings.Contains(string(info), "IP address:") {
			return service, true
		}
	}
	return "", false
}
