package sysdns

//
// The user-supplied custom command strategy.
//

import (
	"path/filepath"

	"github.com/SoroushMB/DNS-Master/internal/shellx"
)

// applyCustom runs the command line from DNSMASTER_APPLY_CMD with the
// resolver address appended as the final argument. This replaces
// platform dispatch for setups the builtin strategies cannot handle,
// such as unusual network managers or remote configuration hooks.
func (ap *Applier) applyCustom(cmdline, address string) (string, error) {
	argv, err := shellx.ParseCommandLine(cmdline)
	if err != nil {
		return "", classify("custom command", err)
	}
	mechanism := filepath.Base(argv.P)
	argv.Append(address)
	config := &shellx.Config{Logger: ap.logger}
	if _, err := shellx.OutputEx(config, argv, &shellx.Envp{}); err != nil {
		return "", classify(mechanism, err)
	}
	return mechanism, nil
}
