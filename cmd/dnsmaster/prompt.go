package main

//
// Interactive prompts
//

import (
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/mitchellh/go-wordwrap"

	"github.com/SoroushMB/DNS-Master/internal/model"
	"github.com/SoroushMB/DNS-Master/internal/session"
)

// promptWrapWidth is the column at which we wrap prompt paragraphs.
const promptWrapWidth = 72

// dnsEntryBanner explains interactive entry in DNS mode.
const dnsEntryBanner = "Type the resolvers to benchmark, one per line, as an IP address " +
	"optionally followed by a label (for example: 1.1.1.1 Cloudflare). Submit " +
	"an empty line when you are done and \"-\" to remove the last entry."

// mirrorEntryBanner explains interactive entry in mirror mode.
const mirrorEntryBanner = "Type the mirrors to benchmark, one per line, as an http(s) " +
	"URL optionally followed by a label. Submit an empty line when you are " +
	"done and \"-\" to remove the last entry."

// promptForTargets interactively fills the session target list. Entry
// ends at the first empty line, possibly with an empty list, which
// the caller treats as quitting. Invalid entries print the validation
// error and prompt again.
func promptForTargets(sess *session.Session) error {
	banner := dnsEntryBanner
	if sess.Mode() == model.TargetKindMirror {
		banner = mirrorEntryBanner
	}
	fmt.Printf("\n%s\n\n", wordwrap.WrapString(banner, promptWrapWidth))
	for {
		prompt := &survey.Input{
			Message: fmt.Sprintf("Target %d:", len(sess.Targets())+1),
		}
		var line string
		if err := survey.AskOne(prompt, &line); err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return nil
		}
		if line == "-" {
			if removed := sess.RemoveLastTarget(); !removed.IsNone() {
				fmt.Printf("removed %s\n", removed.Unwrap().String())
			}
			continue
		}
		if err := sess.AddTarget(line); err != nil {
			fmt.Printf("%s\n", err.Error())
		}
	}
}

// confirmApply asks for confirmation before changing the system DNS.
func confirmApply(address string) (bool, error) {
	prompt := &survey.Confirm{
		Message: fmt.Sprintf("Set the system DNS to %s?", address),
	}
	var ok bool
	if err := survey.AskOne(prompt, &ok); err != nil {
		return false, err
	}
	return ok, nil
}
