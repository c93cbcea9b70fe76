// Package mirrors ships the default package mirror catalog and
// detects which distribution we are running on. The catalog is an
// embedded JSON document so the tool benchmarks sensible mirrors out
// of the box; users with their own mirrors load them through
// targetloading instead.
package mirrors

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/SoroushMB/DNS-Master/internal/model"
	"github.com/SoroushMB/DNS-Master/internal/runtimex"
)

// Distro identifies a Linux distribution with a mirror set.
type Distro string

// Distributions the embedded catalog knows about.
const (
	DistroArch     = Distro("arch")
	DistroDebian   = Distro("debian")
	DistroUbuntu   = Distro("ubuntu")
	DistroFedora   = Distro("fedora")
	DistroKali     = Distro("kali")
	DistroMint     = Distro("mint")
	DistroManjaro  = Distro("manjaro")
	DistroOpenSUSE = Distro("opensuse")
)

// ErrUnknownDistro means the given name is not in the catalog.
var ErrUnknownDistro = errors.New("mirrors: unknown distribution")

//go:embed catalog.json
var catalogJSON []byte

// catalogEntry is a row of the embedded catalog.
type catalogEntry struct {
	// Distro is the distribution this mirror serves.
	Distro Distro `json:"distro"`

	// Name is the human readable mirror name.
	Name string `json:"name"`

	// URL is the endpoint we benchmark.
	URL string `json:"url"`
}

var (
	catalogOnce sync.Once
	catalogMap  map[Distro][]model.Target
)

// Catalog returns the embedded mirror catalog keyed by distribution.
// The returned map is shared; callers must not mutate it.
func Catalog() map[Distro][]model.Target {
	catalogOnce.Do(func() {
		var entries []catalogEntry
		runtimex.Try0(json.Unmarshal(catalogJSON, &entries))
		catalogMap = make(map[Distro][]model.Target)
		for _, entry := range entries {
			target := runtimex.Try1(model.NewMirrorTarget(entry.URL, entry.Name))
			catalogMap[entry.Distro] = append(catalogMap[entry.Distro], target)
		}
	})
	return catalogMap
}

// ForDistro returns a copy of the mirror targets for the given
// distribution, which is empty for distributions we do not know.
func ForDistro(distro Distro) []model.Target {
	return append([]model.Target{}, Catalog()[distro]...)
}

// Distros returns the catalog's distributions in sorted order.
func Distros() []Distro {
	var out []Distro
	for distro := range Catalog() {
		out = append(out, distro)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseDistro validates a distribution name from user input.
func ParseDistro(name string) (Distro, error) {
	distro := Distro(strings.ToLower(strings.TrimSpace(name)))
	if _, found := Catalog()[distro]; !found {
		return "", fmt.Errorf("%w: %s", ErrUnknownDistro, name)
	}
	return distro, nil
}
