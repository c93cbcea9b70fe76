package mirrors

//
// Distribution detection
//

import (
	"os"
	"strings"

	"github.com/SoroushMB/DNS-Master/internal/optional"
)

// osReleasePath is where Linux systems describe the distribution.
const osReleasePath = "/etc/os-release"

// readFileFunc allows tests to fake the os-release file.
var readFileFunc = os.ReadFile

// Detect returns the running distribution. It returns None when the
// distribution is not in the catalog or there is no readable
// os-release file, which is also the case on non-Linux platforms.
func Detect() optional.Value[Distro] {
	data, err := readFileFunc(osReleasePath)
	if err != nil {
		return optional.None[Distro]()
	}
	return detectFromOSRelease(string(data))
}

// detectFromOSRelease parses os-release content. The ID line wins;
// ID_LIKE covers derivatives we do not know directly.
func detectFromOSRelease(content string) optional.Value[Distro] {
	var id, idLike string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if value, found := strings.CutPrefix(line, "ID="); found {
			id = strings.Trim(value, `"`)
			continue
		}
		if value, found := strings.CutPrefix(line, "ID_LIKE="); found {
			idLike = strings.Trim(value, `"`)
		}
	}
	if distro, found := distroFromID(id); found {
		return optional.Some(distro)
	}
	for _, candidate := range strings.Fields(idLike) {
		if distro, found := distroFromID(candidate); found {
			return optional.Some(distro)
		}
	}
	return optional.None[Distro]()
}

// distroFromID maps an os-release identifier to a catalog distro.
func distroFromID(id string) (Distro, bool) {
	switch strings.ToLower(id) {
	case "arch", "archlinux":
		return DistroArch, true
	case "debian":
		return DistroDebian, true
	case "ubuntu":
		return DistroUbuntu, true
	case "fedora":
		return DistroFedora, true
	case "kali":
		return DistroKali, true
	case "linuxmint", "mint":
		return DistroMint, true
	case "manjaro":
		return DistroManjaro, true
	case "opensuse", "opensuse-leap", "opensuse-tumbleweed":
		return DistroOpenSUSE, true
	default:
		return "", false
	}
}
